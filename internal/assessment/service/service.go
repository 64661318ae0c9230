// Package service orchestrates the assessment lifecycle: response capture,
// completeness and compliance evaluation, and the workflow state machine.
// Transitions run through the store's Execute callback so validate and
// commit form one atomic unit per assessment.
package service

import (
	"context"
	"errors"
	"log/slog"

	assessmentmetrics "govseal/internal/assessment/metrics"
	"govseal/internal/assessment/models"
	"govseal/internal/assessment/store"
	"govseal/internal/audit"
	"govseal/internal/catalog"
	"govseal/internal/compliance"
	"govseal/internal/evidence"
	"govseal/internal/insights"
	"govseal/internal/platform/config"
	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
	"govseal/pkg/platform/sentinel"
	"govseal/pkg/requestcontext"
)

// Service exposes the portal core's operations over one catalog cycle.
type Service struct {
	assessments store.Store
	movs        evidence.Store
	catalog     *catalog.Catalog
	evaluator   *compliance.Evaluator
	workflow    config.WorkflowConfig

	publisher *audit.Publisher
	hook      *insights.Hook
	metrics   *assessmentmetrics.Metrics
	log       *slog.Logger
}

type serviceConfig struct {
	movs      evidence.Store
	publisher *audit.Publisher
	hook      *insights.Hook
	metrics   *assessmentmetrics.Metrics
	log       *slog.Logger
}

// Option customizes optional service collaborators.
type Option func(*serviceConfig)

// WithEvidence wires the MOV store used for evidence checks and edits.
func WithEvidence(movs evidence.Store) Option {
	return func(c *serviceConfig) { c.movs = movs }
}

// WithAudit wires the transition event publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(c *serviceConfig) { c.publisher = p }
}

// WithInsights wires the post-completion hook.
func WithInsights(h *insights.Hook) Option {
	return func(c *serviceConfig) { c.hook = h }
}

// WithMetrics wires the module metrics.
func WithMetrics(m *assessmentmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *serviceConfig) { c.log = log }
}

// New creates the assessment service.
func New(assessments store.Store, cat *catalog.Catalog, workflow config.WorkflowConfig, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}
	return &Service{
		assessments: assessments,
		movs:        cfg.movs,
		catalog:     cat,
		evaluator:   compliance.New(cfg.log),
		workflow:    workflow,
		publisher:   cfg.publisher,
		hook:        cfg.hook,
		metrics:     cfg.metrics,
		log:         cfg.log,
	}
}

// Create opens a draft assessment for the actor's party in the catalog
// cycle. One assessment per (party, cycle year).
func (s *Service) Create(ctx context.Context, actor domain.Actor) (*models.Assessment, error) {
	if actor.Role != domain.RoleSubmitter {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the submitting party opens assessments")
	}
	if actor.Party.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "submitting party is required")
	}

	a := models.New(domain.NewAssessmentID(), actor.Party, s.catalog.CycleYear, requestcontext.Now(ctx))
	if err := s.assessments.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an assessment already exists for this party and cycle")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assessment")
	}
	return a, nil
}

// Get loads an assessment, with the compliance snapshot projected for the
// reading role.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*models.Assessment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleSubmitter {
		a.ComplianceSnapshot = compliance.Project(a.ComplianceSnapshot, actor.Role, a.Status == models.StatusCompleted)
		for _, r := range a.Responses {
			if a.Status != models.StatusCompleted {
				r.Status = ""
			}
		}
	}
	return a, nil
}

// AllowedActions lists the transitions the actor could attempt right now.
func (s *Service) AllowedActions(ctx context.Context, actor domain.Actor, id domain.AssessmentID) ([]models.Action, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(actor, a); err != nil {
		return nil, err
	}
	return models.AllowedActions(a, actor.Role, s.workflow.FinalReviewTier), nil
}

func (s *Service) load(ctx context.Context, id domain.AssessmentID) (*models.Assessment, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "assessment id is required")
	}
	a, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assessment")
	}
	return a, nil
}

// authorizeRead is the scope check the core exposes: reviewers read
// everything, a submitter reads only its own party's assessment.
func (s *Service) authorizeRead(actor domain.Actor, a *models.Assessment) error {
	if actor.Role.IsReviewer() {
		return nil
	}
	if actor.Role == domain.RoleSubmitter && actor.Party == a.Party {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "assessment belongs to another party")
}

func (s *Service) requireOwnSubmitter(actor domain.Actor, a *models.Assessment) error {
	if actor.Role != domain.RoleSubmitter || actor.Party != a.Party {
		return dErrors.New(dErrors.CodeForbidden, "only the submitting party may perform this action")
	}
	return nil
}

// responsesOf flattens stored responses into evaluator input.
func responsesOf(a *models.Assessment) map[domain.IndicatorID]schema.ResponseMap {
	out := make(map[domain.IndicatorID]schema.ResponseMap, len(a.Responses))
	for id, r := range a.Responses {
		out[id] = r.Values
	}
	return out
}

// evidenceLookup snapshots qualifying-evidence counts per indicator so the
// pure evaluators never touch storage.
func (s *Service) evidenceLookup(ctx context.Context, id domain.AssessmentID) (func(domain.IndicatorID) schema.EvidenceChecker, error) {
	if s.movs == nil {
		return nil, nil
	}
	movs, err := s.movs.ListByAssessment(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	byIndicator := make(map[domain.IndicatorID][]*evidence.MOV)
	for _, m := range movs {
		byIndicator[m.IndicatorID] = append(byIndicator[m.IndicatorID], m)
	}
	checkers := make(map[domain.IndicatorID]*evidence.Checker, len(byIndicator))
	for ind, list := range byIndicator {
		checkers[ind] = evidence.NewChecker(list)
	}
	return func(ind domain.IndicatorID) schema.EvidenceChecker {
		c, ok := checkers[ind]
		if !ok {
			return nil
		}
		return c
	}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.log.WarnContext(ctx, "audit emit failed",
			"assessment_id", event.AssessmentID.String(),
			"action", event.Action,
			"error", err,
		)
	}
}
