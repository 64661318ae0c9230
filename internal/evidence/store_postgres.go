package evidence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
)

// Postgres persists MOV references in the mov_references table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed MOV store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const movColumns = `id, assessment_id, indicator_id, field_id, file_name, content_type, size_bytes, uploaded_by, uploaded_at`

func (s *Postgres) Save(ctx context.Context, mov *MOV) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO mov_references (`+movColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes`,
		mov.ID.String(), mov.AssessmentID.String(), string(mov.IndicatorID), mov.FieldID,
		mov.FileName, mov.ContentType, mov.SizeBytes, mov.UploadedBy, mov.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("save mov: %w", err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.MOVID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mov_references WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete mov: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.MOVID) (*MOV, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+movColumns+` FROM mov_references WHERE id = $1`, id.String())
	mov, err := scanMOV(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find mov: %w", err)
	}
	return mov, nil
}

func (s *Postgres) ListByIndicator(ctx context.Context, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) ([]*MOV, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+movColumns+` FROM mov_references
		WHERE assessment_id = $1 AND indicator_id = $2
		ORDER BY uploaded_at`,
		assessmentID.String(), string(indicatorID))
	if err != nil {
		return nil, fmt.Errorf("list movs by indicator: %w", err)
	}
	defer rows.Close()
	return collectMOVs(rows)
}

func (s *Postgres) ListByAssessment(ctx context.Context, assessmentID domain.AssessmentID) ([]*MOV, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+movColumns+` FROM mov_references
		WHERE assessment_id = $1
		ORDER BY uploaded_at`,
		assessmentID.String())
	if err != nil {
		return nil, fmt.Errorf("list movs by assessment: %w", err)
	}
	defer rows.Close()
	return collectMOVs(rows)
}

func scanMOV(row pgx.Row) (*MOV, error) {
	var (
		mov                            MOV
		id, assessmentID, indicatorID string
	)
	err := row.Scan(&id, &assessmentID, &indicatorID, &mov.FieldID,
		&mov.FileName, &mov.ContentType, &mov.SizeBytes, &mov.UploadedBy, &mov.UploadedAt)
	if err != nil {
		return nil, err
	}
	movID, err := domain.ParseMOVID(id)
	if err != nil {
		return nil, err
	}
	aID, err := domain.ParseAssessmentID(assessmentID)
	if err != nil {
		return nil, err
	}
	mov.ID = movID
	mov.AssessmentID = aID
	mov.IndicatorID = domain.IndicatorID(indicatorID)
	return &mov, nil
}

func collectMOVs(rows pgx.Rows) ([]*MOV, error) {
	var out []*MOV
	for rows.Next() {
		mov, err := scanMOV(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mov: %w", err)
		}
		out = append(out, mov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movs: %w", err)
	}
	return out, nil
}
