// Package store persists assessment aggregates. Both implementations share
// the Execute callback contract: validate and mutate run as one atomic unit
// per assessment (mutex in memory, row lock in PostgreSQL), so a response
// edit can never race a transition's validate-then-commit sequence.
package store

import (
	"context"

	"govseal/internal/assessment/models"
	"govseal/pkg/domain"
)

// ValidateFn inspects the locked assessment and may veto the mutation by
// returning an error. The error aborts Execute without any state change.
type ValidateFn func(*models.Assessment) error

// MutateFn applies the change after validation passed. It must not fail.
type MutateFn func(*models.Assessment)

// Store is the persistence port for assessments. Implementations return
// sentinel errors; services translate them into domain errors.
type Store interface {
	// Create persists a new assessment. A second assessment for the same
	// (party, cycle year) returns sentinel.ErrConflict.
	Create(ctx context.Context, a *models.Assessment) error

	FindByID(ctx context.Context, id domain.AssessmentID) (*models.Assessment, error)
	FindByParty(ctx context.Context, party domain.PartyID, cycleYear int) (*models.Assessment, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Assessment, error)

	// Execute atomically runs validate then mutate against the assessment
	// under the store's per-assessment lock and persists the result. The
	// returned assessment reflects the committed state.
	Execute(ctx context.Context, id domain.AssessmentID, validate ValidateFn, mutate MutateFn) (*models.Assessment, error)
}
