package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"govseal/internal/assessment/handler"
	assessmentmetrics "govseal/internal/assessment/metrics"
	"govseal/internal/assessment/service"
	"govseal/internal/assessment/store"
	"govseal/internal/audit"
	"govseal/internal/catalog"
	"govseal/internal/evidence"
	"govseal/internal/insights"
	"govseal/internal/jwttoken"
	"govseal/internal/platform/config"
	"govseal/internal/platform/httpserver"
	"govseal/internal/platform/logger"
	"govseal/internal/platform/metrics"
	"govseal/internal/platform/postgres"
	"govseal/internal/platform/redis"
	httptransport "govseal/internal/transport/http"
)

// insightsMarkerTTL bounds the Redis idempotency keys; well past any
// realistic assessment cycle.
const insightsMarkerTTL = 400 * 24 * time.Hour

// auditInboxSize bounds the audit buffer between emitters and the
// persistence worker.
const auditInboxSize = 256

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	var (
		assessments store.Store    = store.NewInMemory()
		movs        evidence.Store = evidence.NewInMemory()
		trail       audit.Store    = audit.NewInMemory()
	)
	if pool != nil {
		defer pool.Close()
		assessments = store.NewPostgres(pool)
		movs = evidence.NewPostgres(pool)
		trail = audit.NewPostgres(pool)
		log.Info("using postgres stores")
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var marker insights.Marker = insights.NewMemoryMarker()
	if redisClient != nil {
		defer redisClient.Close()
		marker = insights.NewRedisMarker(redisClient.Client, insightsMarkerTTL)
	}

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to create kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}

	// Emitters append into the inbox; the worker drains it into the trail
	// store off the request path.
	inbox := audit.NewInbox(trail, auditInboxSize)
	auditWorker := audit.NewWorker(trail, inbox.Events())

	m := metrics.New()
	svc := service.New(assessments, cat, cfg.Workflow,
		service.WithEvidence(movs),
		service.WithAudit(audit.NewPublisher(inbox, sink, log)),
		service.WithInsights(insights.NewHook(marker, insights.NewLogGenerator(log), log)),
		service.WithMetrics(assessmentmetrics.New()),
		service.WithLogger(log),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "govseal", "govseal-portal")
	router := httptransport.NewRouter(
		handler.New(svc, log),
		jwttoken.NewActorValidator(tokens),
		m,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting govseal portal",
			"addr", cfg.Addr,
			"cycle_year", cat.CycleYear,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
