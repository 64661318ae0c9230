package evidence

import (
	"context"

	"govseal/pkg/domain"
)

// Store persists MOV references. Implementations return sentinel errors for
// infrastructure facts; services translate them.
type Store interface {
	Save(ctx context.Context, mov *MOV) error
	Delete(ctx context.Context, id domain.MOVID) error
	FindByID(ctx context.Context, id domain.MOVID) (*MOV, error)
	ListByIndicator(ctx context.Context, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) ([]*MOV, error)
	ListByAssessment(ctx context.Context, assessmentID domain.AssessmentID) ([]*MOV, error)
}
