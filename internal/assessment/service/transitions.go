package service

import (
	"context"

	"govseal/internal/assessment/models"
	"govseal/internal/audit"
	"govseal/internal/completeness"
	"govseal/internal/compliance"
	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
	"govseal/pkg/requestcontext"
)

// TransitionPayload carries the action-specific input of a transition.
type TransitionPayload struct {
	// Comment is the rework justification.
	Comment string `json:"comment,omitempty"`

	// Indicators scopes a calibration request, or names the indicators a
	// rework request calls out.
	Indicators []domain.IndicatorID `json:"indicators,omitempty"`
}

// TransitionResult reports a committed transition.
type TransitionResult struct {
	Assessment *models.Assessment `json:"assessment"`
	Effects    []models.Effect    `json:"effects,omitempty"`
}

// Transition dispatches a named workflow action. Guard failures return a
// typed reason and never partially mutate state.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, id domain.AssessmentID, action models.Action, payload TransitionPayload) (*TransitionResult, error) {
	switch action {
	case models.ActionSubmit:
		return s.Submit(ctx, actor, id)
	case models.ActionBeginReview:
		return s.BeginReview(ctx, actor, id)
	case models.ActionRequestRework:
		return s.RequestRework(ctx, actor, id, payload.Comment, payload.Indicators)
	case models.ActionResubmit:
		return s.Resubmit(ctx, actor, id)
	case models.ActionApprove:
		return s.Approve(ctx, actor, id)
	case models.ActionRequestCalibration:
		return s.RequestCalibration(ctx, actor, id, payload.Indicators)
	case models.ActionSubmitCalibration:
		return s.SubmitCalibration(ctx, actor, id)
	case models.ActionComplete:
		return s.Complete(ctx, actor, id)
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown action %q", action)
	}
}

// Submit moves a draft to SUBMITTED once completeness holds.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	return s.submit(ctx, actor, id, models.ActionSubmit, models.StatusDraft)
}

// Resubmit returns a reworked assessment to SUBMITTED under the same
// completeness guard. rework_count stays at its current value.
func (s *Service) Resubmit(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	return s.submit(ctx, actor, id, models.ActionResubmit, models.StatusRework)
}

func (s *Service) submit(ctx context.Context, actor domain.Actor, id domain.AssessmentID, action models.Action, from models.Status) (*TransitionResult, error) {
	now := requestcontext.Now(ctx)
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			if cur.Status != from {
				return dErrors.Newf(dErrors.CodeGuardViolation, "cannot %s from status %s", action, cur.Status)
			}
			if err := cur.CanSubmit(); err != nil {
				return err
			}
			// The evidence snapshot is taken under the same lock the
			// commit holds, so a concurrent MOV edit cannot slip between
			// the completeness check and the status change.
			lookup, err := s.evidenceLookup(ctx, cur.ID)
			if err != nil {
				return err
			}
			res := completeness.Evaluate(s.catalog, completeness.Input{
				Responses: responsesOf(cur),
				Evidence:  lookup,
			})
			if !res.IsComplete {
				return dErrors.New(dErrors.CodeGuardViolation, "incomplete indicators present")
			}
			return nil
		},
		func(cur *models.Assessment) {
			cur.ApplySubmit(now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(action, err)
	}
	return s.committed(ctx, actor, action, string(from), a, nil), nil
}

// BeginReview moves SUBMITTED to IN_REVIEW for the routed tier's reviewer.
func (s *Service) BeginReview(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	tier, err := reviewTier(actor)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			return cur.CanBeginReview(tier)
		},
		func(cur *models.Assessment) {
			cur.ApplyBeginReview(now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionBeginReview, err)
	}
	return s.committed(ctx, actor, models.ActionBeginReview, string(models.StatusSubmitted), a, nil), nil
}

// RequestRework returns the assessment to the submitting actor, at most
// once per assessment, with a substantive comment. Named indicators are
// flagged requires_rework.
func (s *Service) RequestRework(ctx context.Context, actor domain.Actor, id domain.AssessmentID, comment string, indicators []domain.IndicatorID) (*TransitionResult, error) {
	tier, err := reviewTier(actor)
	if err != nil {
		return nil, err
	}
	for _, ind := range indicators {
		if _, ok := s.catalog.Indicator(ind); !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown indicator %s", ind)
		}
	}

	now := requestcontext.Now(ctx)
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			if tier != cur.CurrentTier {
				return dErrors.Newf(dErrors.CodeGuardViolation, "review belongs to tier %d", cur.CurrentTier)
			}
			return cur.CanRequestRework(comment, s.workflow.ReworkCommentMinLen)
		},
		func(cur *models.Assessment) {
			cur.ApplyRequestRework(comment, actor.Subject, now)
			for _, ind := range indicators {
				cur.Response(ind).RequiresRework = true
			}
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionRequestRework, err)
	}
	effects := []models.Effect{{Type: models.EffectReworkRequested}}
	return s.committed(ctx, actor, models.ActionRequestRework, string(models.StatusInReview), a, effects), nil
}

// Approve signs the current tier off. Below the final tier the assessment
// stays IN_REVIEW and routes upward; at the final tier approval completes
// the assessment.
func (s *Service) Approve(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	tier, err := reviewTier(actor)
	if err != nil {
		return nil, err
	}
	if tier >= s.workflow.FinalReviewTier {
		return s.Complete(ctx, actor, id)
	}

	now := requestcontext.Now(ctx)
	var effect models.Effect
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			return cur.CanApprove(tier)
		},
		func(cur *models.Assessment) {
			effect = cur.ApplyApprove(now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionApprove, err)
	}
	return s.committed(ctx, actor, models.ActionApprove, string(models.StatusInReview), a, []models.Effect{effect}), nil
}

// RequestCalibration opens a calibration cycle scoped to the named
// indicator subset. Only the final tier may request it.
func (s *Service) RequestCalibration(ctx context.Context, actor domain.Actor, id domain.AssessmentID, indicators []domain.IndicatorID) (*TransitionResult, error) {
	tier, err := reviewTier(actor)
	if err != nil {
		return nil, err
	}
	for _, ind := range indicators {
		if _, ok := s.catalog.Indicator(ind); !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown indicator %s", ind)
		}
	}

	now := requestcontext.Now(ctx)
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			return cur.CanRequestCalibration(tier, s.workflow.FinalReviewTier, indicators)
		},
		func(cur *models.Assessment) {
			cur.ApplyRequestCalibration(tier, indicators, now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionRequestCalibration, err)
	}
	effects := []models.Effect{{Type: models.EffectCalibrationOpened}}
	return s.committed(ctx, actor, models.ActionRequestCalibration, string(models.StatusInReview), a, effects), nil
}

// SubmitCalibration returns a calibrated assessment to SUBMITTED, routed to
// the tier that requested calibration. Only the flagged subset must be
// complete.
func (s *Service) SubmitCalibration(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	now := requestcontext.Now(ctx)
	var effect models.Effect
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			if err := s.requireOwnSubmitter(actor, cur); err != nil {
				return err
			}
			if err := cur.CanSubmitCalibration(); err != nil {
				return err
			}
			lookup, err := s.evidenceLookup(ctx, cur.ID)
			if err != nil {
				return err
			}
			res := completeness.EvaluateSubset(s.catalog, completeness.Input{
				Responses: responsesOf(cur),
				Evidence:  lookup,
			}, cur.CalibrationFlags)
			if !res.IsComplete {
				return dErrors.New(dErrors.CodeGuardViolation, "incomplete indicators present")
			}
			return nil
		},
		func(cur *models.Assessment) {
			effect = cur.ApplySubmitCalibration(now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionSubmitCalibration, err)
	}
	return s.committed(ctx, actor, models.ActionSubmitCalibration, string(models.StatusCalibration), a, []models.Effect{effect}), nil
}

// Complete closes the assessment at the final tier, freezing the compliance
// snapshot computed against the locked state.
func (s *Service) Complete(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*TransitionResult, error) {
	tier, err := reviewTier(actor)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var lookup func(domain.IndicatorID) schema.EvidenceChecker
	a, err := s.assessments.Execute(ctx, id,
		func(cur *models.Assessment) error {
			if err := cur.CanComplete(tier, s.workflow.FinalReviewTier); err != nil {
				return err
			}
			var err error
			lookup, err = s.evidenceLookup(ctx, cur.ID)
			return err
		},
		func(cur *models.Assessment) {
			report := s.evaluator.Evaluate(s.catalog, compliance.Input{
				Responses: responsesOf(cur),
				Evidence:  lookup,
			})
			for _, res := range report.Indicators {
				if r, ok := cur.Responses[res.IndicatorID]; ok {
					r.Status = validationStatus(res.Verdict)
				}
			}
			cur.ApplyComplete(report, now)
		},
	)
	if err != nil {
		return nil, s.transitionErr(models.ActionComplete, err)
	}

	effects := []models.Effect{{Type: models.EffectSnapshotFrozen}}
	if s.hook != nil {
		s.hook.AssessmentCompleted(ctx, a.ID)
		effects = append(effects, models.Effect{Type: models.EffectInsightsScheduled})
	}
	return s.committed(ctx, actor, models.ActionComplete, string(models.StatusInReview), a, effects), nil
}

func reviewTier(actor domain.Actor) (int, error) {
	tier := actor.Role.ReviewTier()
	if tier == 0 {
		return 0, dErrors.New(dErrors.CodeForbidden, "a reviewing role is required")
	}
	return tier, nil
}

func (s *Service) transitionErr(action models.Action, err error) error {
	err = s.translate(err)
	if dErrors.HasCode(err, dErrors.CodeGuardViolation) {
		s.metrics.IncrementGuardViolation(string(action))
	}
	return err
}

func (s *Service) committed(ctx context.Context, actor domain.Actor, action models.Action, from string, a *models.Assessment, effects []models.Effect) *TransitionResult {
	s.metrics.IncrementTransition(string(action))
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryWorkflow,
		AssessmentID: a.ID,
		Action:       string(action),
		Actor:        actor.Subject,
		Role:         actor.Role,
		FromStatus:   from,
		ToStatus:     string(a.Status),
	})
	s.log.InfoContext(ctx, "assessment transition",
		"assessment_id", a.ID.String(),
		"action", string(action),
		"status", string(a.Status),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &TransitionResult{Assessment: a, Effects: effects}
}
