package service

import (
	"context"
	"time"

	"govseal/internal/assessment/models"
	"govseal/internal/completeness"
	"govseal/internal/compliance"
	"govseal/internal/evidence"
	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
)

// ValidateResponse validates a candidate response map against one
// indicator's form without persisting anything. Evidence checks run against
// the MOVs already attached to the assessment.
func (s *Service) ValidateResponse(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, responses schema.ResponseMap) (schema.Result, error) {
	ind, ok := s.catalog.Indicator(indicatorID)
	if !ok {
		return schema.Result{}, dErrors.Newf(dErrors.CodeNotFound, "unknown indicator %s", indicatorID)
	}
	a, err := s.load(ctx, assessmentID)
	if err != nil {
		return schema.Result{}, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return schema.Result{}, err
	}

	checker, err := s.indicatorEvidence(ctx, assessmentID, indicatorID)
	if err != nil {
		return schema.Result{}, err
	}
	return ind.Form.Validate(responses, checker), nil
}

// EvaluateCompleteness answers whether the assessment can be submitted.
func (s *Service) EvaluateCompleteness(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (completeness.Result, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return completeness.Result{}, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return completeness.Result{}, err
	}
	return s.completenessOf(ctx, a)
}

func (s *Service) completenessOf(ctx context.Context, a *models.Assessment) (completeness.Result, error) {
	lookup, err := s.evidenceLookup(ctx, a.ID)
	if err != nil {
		return completeness.Result{}, err
	}
	defer s.metrics.ObserveEvaluation("completeness", time.Now())
	return completeness.Evaluate(s.catalog, completeness.Input{
		Responses: responsesOf(a),
		Evidence:  lookup,
	}), nil
}

// EvaluateCompliance computes the full compliance report, projected for the
// reading role. After completion the frozen snapshot is returned instead of
// a fresh evaluation.
func (s *Service) EvaluateCompliance(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*compliance.Report, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return nil, err
	}

	completed := a.Status == models.StatusCompleted
	var report *compliance.Report
	if completed && a.ComplianceSnapshot != nil {
		report = a.ComplianceSnapshot
	} else {
		lookup, err := s.evidenceLookup(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		report = s.evaluator.Evaluate(s.catalog, compliance.Input{
			Responses: responsesOf(a),
			Evidence:  lookup,
		})
		s.metrics.ObserveEvaluation("compliance", start)
	}

	projected := compliance.Project(report, actor.Role, completed)
	if projected == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "compliance results are not visible before completion")
	}
	return projected, nil
}

func (s *Service) indicatorEvidence(ctx context.Context, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) (schema.EvidenceChecker, error) {
	if s.movs == nil {
		return nil, nil
	}
	movs, err := s.movs.ListByIndicator(ctx, assessmentID, indicatorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	return evidence.NewChecker(movs), nil
}
