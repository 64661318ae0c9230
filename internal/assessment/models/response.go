package models

import (
	"time"

	"govseal/internal/schema"
	"govseal/pkg/domain"
)

// ValidationStatus is the reviewer-side compliance state of one indicator
// response. It is derived during review and must never reach the submitting
// actor's read path before completion.
type ValidationStatus string

const (
	ValidationMet        ValidationStatus = "met"
	ValidationConsidered ValidationStatus = "considered"
	ValidationUnmet      ValidationStatus = "unmet"
)

// IndicatorResponse is the captured answer set for one indicator.
type IndicatorResponse struct {
	IndicatorID domain.IndicatorID `json:"indicator_id"`

	// Values holds the raw field values as captured.
	Values schema.ResponseMap `json:"values,omitempty"`

	// IsCompleted is the submitting actor's own done marker, distinct from
	// evaluated completeness.
	IsCompleted bool `json:"is_completed"`

	// RequiresRework marks the indicator as called out in a rework cycle.
	RequiresRework bool `json:"requires_rework"`

	// Status is recomputed whenever responses change and frozen with the
	// assessment's compliance snapshot.
	Status ValidationStatus `json:"validation_status,omitempty"`
}

// SetValues replaces the captured values wholesale. Partial field updates
// merge at the transport layer; the core stores the full map.
func (r *IndicatorResponse) SetValues(values schema.ResponseMap) {
	r.Values = values
}

// ApplyResponseUpdate stores new values for an indicator. An edit clears
// the rework flag for that indicator; the reviewer re-flags on the next
// cycle if the correction is insufficient.
func (a *Assessment) ApplyResponseUpdate(id domain.IndicatorID, values schema.ResponseMap, now time.Time) *IndicatorResponse {
	r := a.Response(id)
	r.SetValues(values)
	r.RequiresRework = false
	a.touch(now)
	return r
}

// ApplyCompletionMark records the submitting actor's own done marker.
func (a *Assessment) ApplyCompletionMark(id domain.IndicatorID, done bool, now time.Time) {
	a.Response(id).IsCompleted = done
	a.touch(now)
}
