// Package models holds the assessment aggregate and its pure workflow
// transitions. Transition methods come in Can/Apply pairs so stores can run
// them atomically under lock: CanX validates against current state and
// returns a typed guard violation, ApplyX mutates after validation passed.
package models

import (
	"fmt"
	"time"

	"govseal/internal/compliance"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
)

// Status is the workflow state of an assessment.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusInReview    Status = "IN_REVIEW"
	StatusRework      Status = "REWORK"
	StatusCalibration Status = "CALIBRATION"

	// StatusCompleted is terminal. The compliance snapshot freezes here.
	StatusCompleted Status = "COMPLETED"
)

// Editable reports whether the submitting actor may change responses and
// evidence in this status. Calibration additionally restricts edits to the
// flagged indicator subset; see Assessment.CanEditIndicator.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusRework || s == StatusCalibration
}

// MaxReworkCount is the single allowed return-to-submitter cycle.
const MaxReworkCount = 1

// ReworkRecord is one reviewer-ordered correction cycle.
type ReworkRecord struct {
	Comment     string    `json:"comment"`
	RequestedBy string    `json:"requested_by"`
	Tier        int       `json:"tier"`
	RequestedAt time.Time `json:"requested_at"`
}

// Effect describes a side outcome of a committed transition, reported back
// to the caller alongside the new status.
type Effect struct {
	Type   string `json:"type"`
	Detail string `json:"detail,omitempty"`
}

const (
	EffectRoutedToTier      = "routed_to_tier"
	EffectReworkRequested   = "rework_requested"
	EffectCalibrationOpened = "calibration_opened"
	EffectSnapshotFrozen    = "snapshot_frozen"
	EffectInsightsScheduled = "insights_scheduled"
)

// Assessment is one (party, cycle year) self-assessment moving through the
// workflow. It owns its indicator responses; MOV references live in the
// evidence store.
type Assessment struct {
	ID        domain.AssessmentID `json:"id"`
	Party     domain.PartyID      `json:"party_id"`
	CycleYear int                 `json:"cycle_year"`
	Status    Status              `json:"status"`

	// CurrentTier is the review tier responsible for the assessment while
	// it is submitted or in review. Zero before first review.
	CurrentTier int `json:"current_tier"`

	ReworkCount int            `json:"rework_count"`
	Reworks     []ReworkRecord `json:"reworks,omitempty"`

	// CalibrationFlags is the indicator subset a calibration request
	// scoped. Only these indicators are editable in CALIBRATION.
	CalibrationFlags []domain.IndicatorID `json:"calibration_flags,omitempty"`

	// CalibrationTier is the tier that requested calibration; the
	// resubmission routes back to it.
	CalibrationTier int `json:"calibration_tier,omitempty"`

	Responses map[domain.IndicatorID]*IndicatorResponse `json:"responses,omitempty"`

	// ComplianceSnapshot is the full evaluation frozen at COMPLETED.
	// Nil before completion.
	ComplianceSnapshot *compliance.Report `json:"compliance_snapshot,omitempty"`

	// Version supports the optimistic concurrency check in stores that
	// cannot hold a lock across validate-then-commit.
	Version int `json:"version"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// New creates a draft assessment for one party and cycle.
func New(id domain.AssessmentID, party domain.PartyID, cycleYear int, now time.Time) *Assessment {
	return &Assessment{
		ID:        id,
		Party:     party,
		CycleYear: cycleYear,
		Status:    StatusDraft,
		Responses: make(map[domain.IndicatorID]*IndicatorResponse),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func guard(msg string) error {
	return dErrors.New(dErrors.CodeGuardViolation, msg)
}

func guardf(format string, args ...any) error {
	return dErrors.Newf(dErrors.CodeGuardViolation, format, args...)
}

// CanSubmit checks the submit guard shared by submit and resubmit.
// Completeness is the service's half of the guard; this half covers state.
func (a *Assessment) CanSubmit() error {
	if a.Status != StatusDraft && a.Status != StatusRework {
		return guardf("cannot submit from status %s", a.Status)
	}
	return nil
}

// ApplySubmit moves a draft or reworked assessment to SUBMITTED.
// rework_count is never reset: a resubmission after rework keeps it at 1.
func (a *Assessment) ApplySubmit(now time.Time) {
	a.Status = StatusSubmitted
	if a.CurrentTier == 0 {
		a.CurrentTier = 1
	}
	a.SubmittedAt = &now
	a.touch(now)
}

// CanBeginReview checks that a reviewer may pick the assessment up.
func (a *Assessment) CanBeginReview(tier int) error {
	if a.Status != StatusSubmitted {
		return guardf("cannot begin review from status %s", a.Status)
	}
	if tier != a.CurrentTier {
		return guardf("assessment is routed to tier %d", a.CurrentTier)
	}
	return nil
}

// ApplyBeginReview moves SUBMITTED to IN_REVIEW.
func (a *Assessment) ApplyBeginReview(now time.Time) {
	a.Status = StatusInReview
	a.touch(now)
}

// CanRequestRework enforces the single-rework limit and the minimum
// comment length.
func (a *Assessment) CanRequestRework(comment string, minCommentLen int) error {
	if a.Status != StatusInReview {
		return guardf("cannot request rework from status %s", a.Status)
	}
	if a.ReworkCount >= MaxReworkCount {
		return guard("rework limit reached")
	}
	if len(comment) < minCommentLen {
		return guardf("rework comment must be at least %d characters", minCommentLen)
	}
	return nil
}

// ApplyRequestRework returns the assessment to the submitting actor.
func (a *Assessment) ApplyRequestRework(comment, requestedBy string, now time.Time) {
	a.Status = StatusRework
	a.ReworkCount++
	a.Reworks = append(a.Reworks, ReworkRecord{
		Comment:     comment,
		RequestedBy: requestedBy,
		Tier:        a.CurrentTier,
		RequestedAt: now,
	})
	a.touch(now)
}

// CanApprove checks that the current tier may sign off.
func (a *Assessment) CanApprove(tier int) error {
	if a.Status != StatusInReview {
		return guardf("cannot approve from status %s", a.Status)
	}
	if tier != a.CurrentTier {
		return guardf("approval belongs to tier %d", a.CurrentTier)
	}
	return nil
}

// ApplyApprove routes the assessment to the next review tier, staying in
// IN_REVIEW. Callers at the final tier use ApplyComplete instead.
func (a *Assessment) ApplyApprove(now time.Time) Effect {
	a.CurrentTier++
	a.touch(now)
	return Effect{Type: EffectRoutedToTier, Detail: fmt.Sprintf("%d", a.CurrentTier)}
}

// CanRequestCalibration checks the calibration guard: only the final tier,
// mid-review, over a named non-empty indicator subset.
func (a *Assessment) CanRequestCalibration(tier, finalTier int, flags []domain.IndicatorID) error {
	if a.Status != StatusInReview {
		return guardf("cannot request calibration from status %s", a.Status)
	}
	if tier != finalTier {
		return guard("calibration requests originate from the final review tier")
	}
	if a.CurrentTier != finalTier {
		return guardf("assessment is at tier %d, not the final tier", a.CurrentTier)
	}
	if len(flags) == 0 {
		return guard("calibration requires a named indicator subset")
	}
	return nil
}

// ApplyRequestCalibration opens a calibration cycle scoped to the flagged
// indicators.
func (a *Assessment) ApplyRequestCalibration(tier int, flags []domain.IndicatorID, now time.Time) {
	a.Status = StatusCalibration
	a.CalibrationFlags = flags
	a.CalibrationTier = tier
	a.touch(now)
}

// CanSubmitCalibration checks the state half of the calibration-resubmit
// guard; subset completeness is the service's half.
func (a *Assessment) CanSubmitCalibration() error {
	if a.Status != StatusCalibration {
		return guardf("cannot submit calibration from status %s", a.Status)
	}
	return nil
}

// ApplySubmitCalibration routes the calibrated assessment back to the
// requesting tier.
func (a *Assessment) ApplySubmitCalibration(now time.Time) Effect {
	a.Status = StatusSubmitted
	a.CurrentTier = a.CalibrationTier
	a.touch(now)
	return Effect{Type: EffectRoutedToTier, Detail: fmt.Sprintf("%d", a.CurrentTier)}
}

// CanComplete checks that the final tier may close the assessment.
func (a *Assessment) CanComplete(tier, finalTier int) error {
	if a.Status != StatusInReview {
		return guardf("cannot complete from status %s", a.Status)
	}
	if tier != finalTier || a.CurrentTier != finalTier {
		return guard("completion requires the final review tier")
	}
	return nil
}

// ApplyComplete freezes the compliance snapshot and terminates the
// workflow.
func (a *Assessment) ApplyComplete(snapshot *compliance.Report, now time.Time) {
	a.Status = StatusCompleted
	a.ComplianceSnapshot = snapshot
	a.CalibrationFlags = nil
	a.CompletedAt = &now
	a.touch(now)
}

// CanEditIndicator checks the submitting actor's edit lock: edits only in
// an editable status, and during calibration only on flagged indicators.
func (a *Assessment) CanEditIndicator(id domain.IndicatorID) error {
	if !a.Status.Editable() {
		return guardf("responses are locked in status %s", a.Status)
	}
	if a.Status == StatusCalibration && !a.IndicatorFlagged(id) {
		return guardf("indicator %s is outside the calibration scope", id)
	}
	return nil
}

// ApplyEvidenceChange bumps the version after a MOV edit so evidence
// writes share the per-assessment ordering with response edits.
func (a *Assessment) ApplyEvidenceChange(now time.Time) {
	a.touch(now)
}

// IndicatorFlagged reports whether an indicator is in the calibration
// subset.
func (a *Assessment) IndicatorFlagged(id domain.IndicatorID) bool {
	for _, f := range a.CalibrationFlags {
		if f == id {
			return true
		}
	}
	return false
}

// Response returns the stored response for an indicator, creating an empty
// one on first write access.
func (a *Assessment) Response(id domain.IndicatorID) *IndicatorResponse {
	if a.Responses == nil {
		a.Responses = make(map[domain.IndicatorID]*IndicatorResponse)
	}
	r, ok := a.Responses[id]
	if !ok {
		r = &IndicatorResponse{IndicatorID: id}
		a.Responses[id] = r
	}
	return r
}

func (a *Assessment) touch(now time.Time) {
	a.UpdatedAt = now
	a.Version++
}
