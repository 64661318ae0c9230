//go:build integration

package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// portal schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *pgxpool.Pool
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS assessments (
	id          UUID PRIMARY KEY,
	party_id    UUID NOT NULL,
	cycle_year  INT NOT NULL,
	status      TEXT NOT NULL,
	version     INT NOT NULL,
	doc         JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (party_id, cycle_year)
);

CREATE TABLE IF NOT EXISTS mov_references (
	id            UUID PRIMARY KEY,
	assessment_id UUID NOT NULL,
	indicator_id  TEXT NOT NULL,
	field_id      TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	content_type  TEXT NOT NULL DEFAULT '',
	size_bytes    BIGINT NOT NULL DEFAULT 0,
	uploaded_by   TEXT NOT NULL DEFAULT '',
	uploaded_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS mov_references_assessment_idx
	ON mov_references (assessment_id, indicator_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id            BIGSERIAL PRIMARY KEY,
	category      TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	assessment_id UUID NOT NULL,
	action        TEXT NOT NULL,
	actor         TEXT NOT NULL,
	role          TEXT NOT NULL,
	from_status   TEXT NOT NULL DEFAULT '',
	to_status     TEXT NOT NULL DEFAULT '',
	reason        TEXT NOT NULL DEFAULT '',
	request_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_assessment_idx
	ON audit_events (assessment_id);
`

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("govseal"),
		tcpostgres.WithUsername("govseal"),
		tcpostgres.WithPassword("govseal"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		Pool:      pool,
	}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.Pool.Exec(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
