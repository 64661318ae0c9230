// Package handler exposes the assessment core over HTTP. It stays thin:
// decode, delegate to the service, encode. All authorization and guard
// logic lives below it.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govseal/internal/assessment/models"
	"govseal/internal/assessment/service"
	"govseal/internal/completeness"
	"govseal/internal/compliance"
	"govseal/internal/evidence"
	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
	"govseal/pkg/requestcontext"
)

// Service is the assessment operations surface the handler needs.
type Service interface {
	Create(ctx context.Context, actor domain.Actor) (*models.Assessment, error)
	Get(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*models.Assessment, error)
	AllowedActions(ctx context.Context, actor domain.Actor, id domain.AssessmentID) ([]models.Action, error)

	ValidateResponse(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, responses schema.ResponseMap) (schema.Result, error)
	EvaluateCompleteness(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (completeness.Result, error)
	EvaluateCompliance(ctx context.Context, actor domain.Actor, id domain.AssessmentID) (*compliance.Report, error)

	SaveResponse(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, values schema.ResponseMap) (*models.Assessment, error)
	MarkIndicatorCompleted(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, done bool) (*models.Assessment, error)

	AttachEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID, input service.EvidenceInput) (*evidence.MOV, error)
	DeleteEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, movID domain.MOVID) error
	ListEvidence(ctx context.Context, actor domain.Actor, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) ([]*evidence.MOV, error)

	Transition(ctx context.Context, actor domain.Actor, id domain.AssessmentID, action models.Action, payload service.TransitionPayload) (*service.TransitionResult, error)
}

// Handler serves the assessment endpoints.
type Handler struct {
	svc Service
	log *slog.Logger
}

func New(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts the assessment routes. The caller applies authentication
// middleware; every handler assumes an actor is present in context.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assessments", h.handleCreate)
	r.Route("/assessments/{assessmentID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Get("/actions", h.handleAllowedActions)
		r.Get("/completeness", h.handleCompleteness)
		r.Get("/compliance", h.handleCompliance)
		r.Post("/transition", h.handleTransition)
		r.Delete("/evidence/{movID}", h.handleDeleteEvidence)

		r.Route("/indicators/{indicatorID}", func(r chi.Router) {
			r.Put("/response", h.handleSaveResponse)
			r.Post("/validate", h.handleValidateResponse)
			r.Put("/completed", h.handleMarkCompleted)
			r.Get("/evidence", h.handleListEvidence)
			r.Post("/evidence", h.handleAttachEvidence)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.svc.Create(ctx, requestcontext.Actor(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	a, err := h.svc.Get(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleAllowedActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	actions, err := h.svc.AllowedActions(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (h *Handler) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	res, err := h.svc.EvaluateCompleteness(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	report, err := h.svc.EvaluateCompliance(ctx, requestcontext.Actor(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type transitionRequest struct {
	Action     string               `json:"action"`
	Comment    string               `json:"comment,omitempty"`
	Indicators []domain.IndicatorID `json:"indicators,omitempty"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	res, err := h.svc.Transition(ctx, requestcontext.Actor(ctx), id, models.Action(req.Action),
		service.TransitionPayload{Comment: req.Comment, Indicators: req.Indicators})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"new_status": res.Assessment.Status,
		"effects":    res.Effects,
	})
}

type saveResponseRequest struct {
	Values schema.ResponseMap `json:"values"`
}

func (h *Handler) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req saveResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	a, err := h.svc.SaveResponse(ctx, requestcontext.Actor(ctx), id, indicatorID(r), req.Values)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleValidateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req saveResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	res, err := h.svc.ValidateResponse(ctx, requestcontext.Actor(ctx), id, indicatorID(r), req.Values)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":      res.Valid(),
		"errors":     res.Errors,
		"considered": res.Considered,
	})
}

type markCompletedRequest struct {
	Completed bool `json:"completed"`
}

func (h *Handler) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req markCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	a, err := h.svc.MarkIndicatorCompleted(ctx, requestcontext.Actor(ctx), id, indicatorID(r), req.Completed)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type attachEvidenceRequest struct {
	FieldID     string `json:"field_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *Handler) handleAttachEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	var req attachEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	mov, err := h.svc.AttachEvidence(ctx, requestcontext.Actor(ctx), id, indicatorID(r), service.EvidenceInput{
		FieldID:     req.FieldID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mov)
}

func (h *Handler) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	movs, err := h.svc.ListEvidence(ctx, requestcontext.Actor(ctx), id, indicatorID(r))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evidence": movs})
}

func (h *Handler) handleDeleteEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := assessmentID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	movID, err := domain.ParseMOVID(chi.URLParam(r, "movID"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.svc.DeleteEvidence(ctx, requestcontext.Actor(ctx), id, movID); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func assessmentID(r *http.Request) (domain.AssessmentID, error) {
	return domain.ParseAssessmentID(chi.URLParam(r, "assessmentID"))
}

func indicatorID(r *http.Request) domain.IndicatorID {
	return domain.IndicatorID(chi.URLParam(r, "indicatorID"))
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(ctx, "assessment handler error",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	var de *dErrors.Error
	message := "internal error"
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
