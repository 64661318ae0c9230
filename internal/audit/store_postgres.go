package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govseal/pkg/domain"
)

// Postgres persists events in the audit_events table, append-only.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events
			(category, occurred_at, assessment_id, action, actor, role, from_status, to_status, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(event.Category), event.Timestamp, event.AssessmentID.String(),
		event.Action, event.Actor, string(event.Role),
		event.FromStatus, event.ToStatus, event.Reason, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Postgres) ListByAssessment(ctx context.Context, id domain.AssessmentID) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, occurred_at, assessment_id, action, actor, role, from_status, to_status, reason, request_id
		FROM audit_events
		WHERE assessment_id = $1
		ORDER BY id`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return out, nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var (
		event                  Event
		category, assessmentID string
		role                   string
	)
	err := row.Scan(&category, &event.Timestamp, &assessmentID, &event.Action,
		&event.Actor, &role, &event.FromStatus, &event.ToStatus, &event.Reason, &event.RequestID)
	if err != nil {
		return Event{}, err
	}
	aID, err := domain.ParseAssessmentID(assessmentID)
	if err != nil {
		return Event{}, err
	}
	event.Category = EventCategory(category)
	event.AssessmentID = aID
	event.Role = domain.Role(role)
	return event, nil
}
