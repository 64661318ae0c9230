package service

import (
	"context"
	"errors"
	"strings"

	"govseal/internal/assessment/models"
	"govseal/internal/audit"
	"govseal/internal/compliance"
	"govseal/internal/evidence"
	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
	"govseal/pkg/platform/sentinel"
	"govseal/pkg/requestcontext"
)

// SaveResponse stores values for one indicator. The edit-lock check and the
// write run atomically under the store's per-assessment lock; the response's
// validation status is recomputed in the same unit.
func (s *Service) SaveResponse(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, values schema.ResponseMap) (*models.Assessment, error) {
	ind, ok := s.catalog.Indicator(indicatorID)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown indicator %s", indicatorID)
	}

	now := requestcontext.Now(ctx)
	var checker schema.EvidenceChecker
	a, err := s.assessments.Execute(ctx, assessmentID,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			if err := cur.CanEditIndicator(indicatorID); err != nil {
				return err
			}
			var err error
			checker, err = s.indicatorEvidence(ctx, assessmentID, indicatorID)
			return err
		},
		func(cur *models.Assessment) {
			r := cur.ApplyResponseUpdate(indicatorID, values, now)
			verdict := s.evaluator.EvaluateIndicator(ind, values, checker).Verdict
			r.Status = validationStatus(verdict)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, audit.Event{
		Category:     audit.CategoryResponse,
		AssessmentID: assessmentID,
		Action:       "save_response",
		Actor:        actor.Subject,
		Role:         actor.Role,
		Reason:       string(indicatorID),
	})
	return a, nil
}

// MarkIndicatorCompleted toggles the submitting actor's own done marker.
func (s *Service) MarkIndicatorCompleted(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, done bool) (*models.Assessment, error) {
	if _, ok := s.catalog.Indicator(indicatorID); !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown indicator %s", indicatorID)
	}

	now := requestcontext.Now(ctx)
	a, err := s.assessments.Execute(ctx, assessmentID,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			return cur.CanEditIndicator(indicatorID)
		},
		func(cur *models.Assessment) {
			cur.ApplyCompletionMark(indicatorID, done, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}
	return a, nil
}

// EvidenceInput describes an uploaded MOV reference. The file bytes live in
// the external evidence subsystem; the core records metadata only.
type EvidenceInput struct {
	FieldID     string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// AttachEvidence records a MOV reference against a response field. Subject
// to the same edit lock as response values.
func (s *Service) AttachEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, input EvidenceInput) (*evidence.MOV, error) {
	if s.movs == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "evidence store is not configured")
	}
	ind, ok := s.catalog.Indicator(indicatorID)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown indicator %s", indicatorID)
	}
	field, ok := ind.Form.Field(input.FieldID)
	if !ok || field.Kind != schema.KindFile {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "field %q does not accept evidence", input.FieldID)
	}
	if strings.TrimSpace(input.FileName) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file name is required")
	}

	now := requestcontext.Now(ctx)
	mov := &evidence.MOV{
		ID:           domain.NewMOVID(),
		AssessmentID: assessmentID,
		IndicatorID:  indicatorID,
		FieldID:      input.FieldID,
		FileName:     input.FileName,
		ContentType:  input.ContentType,
		SizeBytes:    input.SizeBytes,
		UploadedBy:   actor.Subject,
		UploadedAt:   now,
	}

	// The MOV row is written while the per-assessment lock is held, so a
	// transition's completeness check can never see a half-applied edit.
	var saveErr error
	_, err := s.assessments.Execute(ctx, assessmentID,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			return cur.CanEditIndicator(indicatorID)
		},
		func(cur *models.Assessment) {
			if saveErr = s.movs.Save(ctx, mov); saveErr == nil {
				cur.ApplyEvidenceChange(now)
			}
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}
	if saveErr != nil {
		return nil, dErrors.Wrap(saveErr, dErrors.CodeInternal, "failed to save evidence")
	}

	s.emit(ctx, audit.Event{
		Category:     audit.CategoryResponse,
		AssessmentID: assessmentID,
		Action:       "attach_evidence",
		Actor:        actor.Subject,
		Role:         actor.Role,
		Reason:       string(indicatorID) + "/" + input.FieldID,
	})
	return mov, nil
}

// DeleteEvidence removes a MOV reference, rejected once the assessment
// leaves an editable status.
func (s *Service) DeleteEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, movID domain.MOVID) error {
	if s.movs == nil {
		return dErrors.New(dErrors.CodeInternal, "evidence store is not configured")
	}
	mov, err := s.movs.FindByID(ctx, movID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "evidence not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	if mov.AssessmentID != assessmentID {
		return dErrors.New(dErrors.CodeNotFound, "evidence not found")
	}

	now := requestcontext.Now(ctx)
	var deleteErr error
	_, err = s.assessments.Execute(ctx, assessmentID,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			return cur.CanEditIndicator(mov.IndicatorID)
		},
		func(cur *models.Assessment) {
			deleteErr = s.movs.Delete(ctx, movID)
			if deleteErr == nil || errors.Is(deleteErr, sentinel.ErrNotFound) {
				deleteErr = nil
				cur.ApplyEvidenceChange(now)
			}
		},
	)
	if err != nil {
		return s.translate(err)
	}
	if deleteErr != nil {
		return dErrors.Wrap(deleteErr, dErrors.CodeInternal, "failed to delete evidence")
	}

	s.emit(ctx, audit.Event{
		Category:     audit.CategoryResponse,
		AssessmentID: assessmentID,
		Action:       "delete_evidence",
		Actor:        actor.Subject,
		Role:         actor.Role,
		Reason:       string(mov.IndicatorID) + "/" + mov.FieldID,
	})
	return nil
}

// ListEvidence returns the MOV references for one indicator.
func (s *Service) ListEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) ([]*evidence.MOV, error) {
	if s.movs == nil {
		return nil, nil
	}
	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return nil, err
	}
	movs, err := s.movs.ListByIndicator(ctx, assessmentID, indicatorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence")
	}
	return movs, nil
}

func validationStatus(v compliance.Verdict) models.ValidationStatus {
	switch v {
	case compliance.VerdictPass:
		return models.ValidationMet
	case compliance.VerdictConditional:
		return models.ValidationConsidered
	default:
		return models.ValidationUnmet
	}
}

// translate maps store sentinels to domain errors, passing coded errors
// through untouched.
func (s *Service) translate(err error) error {
	if err == nil {
		return nil
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "assessment not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "conflicting update")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "assessment operation failed")
}
