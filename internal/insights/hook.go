// Package insights exposes the post-completion hook for the external
// narrative-insight generator. The core never generates insights itself; it
// only signals completion, exactly once per assessment.
package insights

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"govseal/pkg/domain"
)

// Generator is the external insight producer. Calls are fire-and-forget
// from the workflow's point of view.
type Generator interface {
	Generate(ctx context.Context, id domain.AssessmentID)
}

// Marker records that the hook fired for an assessment. MarkOnce returns
// true only for the first caller, making retries of complete idempotent.
type Marker interface {
	MarkOnce(ctx context.Context, id domain.AssessmentID) (bool, error)
}

// Hook triggers insight generation after an assessment completes.
type Hook struct {
	marker Marker
	gen    Generator
	log    *slog.Logger
}

func NewHook(marker Marker, gen Generator, log *slog.Logger) *Hook {
	if log == nil {
		log = slog.Default()
	}
	return &Hook{marker: marker, gen: gen, log: log}
}

// AssessmentCompleted fires the generator once per assessment. A marker
// failure is logged and skips generation rather than failing the
// completing transition; the next completion retry will fire the hook.
func (h *Hook) AssessmentCompleted(ctx context.Context, id domain.AssessmentID) {
	if h == nil || h.gen == nil {
		return
	}
	first, err := h.marker.MarkOnce(ctx, id)
	if err != nil {
		h.log.WarnContext(ctx, "insights marker unavailable",
			"assessment_id", id.String(),
			"error", err,
		)
		return
	}
	if !first {
		return
	}
	h.gen.Generate(ctx, id)
}

// RedisMarker implements Marker on Redis SET NX, so idempotency holds
// across portal instances.
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarker creates a marker with the given key lifetime. Zero ttl
// means the marker never expires.
func NewRedisMarker(client *redis.Client, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl}
}

func (m *RedisMarker) MarkOnce(ctx context.Context, id domain.AssessmentID) (bool, error) {
	return m.client.SetNX(ctx, "insights:completed:"+id.String(), "1", m.ttl).Result()
}

// MemoryMarker implements Marker for single-instance runs and tests.
type MemoryMarker struct {
	mu   sync.Mutex
	seen map[domain.AssessmentID]bool
}

func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{seen: make(map[domain.AssessmentID]bool)}
}

func (m *MemoryMarker) MarkOnce(_ context.Context, id domain.AssessmentID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}
