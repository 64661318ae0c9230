package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"govseal/internal/assessment/models"
	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
)

// Postgres persists assessments in the assessments table. The aggregate is
// stored as a JSONB document; id, party, cycle, status, and version are
// lifted into columns for lookups and the optimistic guard.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed assessment store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, a *models.Assessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessments (id, party_id, cycle_year, status, version, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID.String(), a.Party.String(), a.CycleYear, string(a.Status), a.Version, doc, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.AssessmentID) (*models.Assessment, error) {
	return s.scanOne(s.pool.QueryRow(ctx,
		`SELECT doc FROM assessments WHERE id = $1`, id.String()))
}

func (s *Postgres) FindByParty(ctx context.Context, party domain.PartyID, cycleYear int) (*models.Assessment, error) {
	return s.scanOne(s.pool.QueryRow(ctx,
		`SELECT doc FROM assessments WHERE party_id = $1 AND cycle_year = $2`,
		party.String(), cycleYear))
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]*models.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM assessments WHERE status = $1 ORDER BY updated_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assessment
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

// Execute locks the row FOR UPDATE for the whole validate-then-mutate
// sequence and commits the mutated document with a version bump, so two
// writers on the same assessment serialize at the database.
func (s *Postgres) Execute(ctx context.Context, id domain.AssessmentID, validate ValidateFn, mutate MutateFn) (*models.Assessment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM assessments WHERE id = $1 FOR UPDATE`, id.String()).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock assessment: %w", err)
	}

	a, err := decode(doc)
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(a.Clone()); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(a)
	}

	updated, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode assessment: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE assessments
		SET status = $2, version = $3, doc = $4, updated_at = $5
		WHERE id = $1`,
		a.ID.String(), string(a.Status), a.Version, updated, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update assessment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

func (s *Postgres) scanOne(row pgx.Row) (*models.Assessment, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return decode(doc)
}

func decode(doc []byte) (*models.Assessment, error) {
	var a models.Assessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &a, nil
}
