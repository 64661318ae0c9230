package models

import (
	"govseal/internal/schema"
	"govseal/pkg/domain"
)

// Clone deep-copies the assessment so stores can hand out snapshots without
// exposing their internal state to callers.
func (a *Assessment) Clone() *Assessment {
	if a == nil {
		return nil
	}
	out := *a

	if a.Reworks != nil {
		out.Reworks = make([]ReworkRecord, len(a.Reworks))
		copy(out.Reworks, a.Reworks)
	}
	if a.CalibrationFlags != nil {
		out.CalibrationFlags = make([]domain.IndicatorID, len(a.CalibrationFlags))
		copy(out.CalibrationFlags, a.CalibrationFlags)
	}
	if a.Responses != nil {
		out.Responses = make(map[domain.IndicatorID]*IndicatorResponse, len(a.Responses))
		for id, r := range a.Responses {
			clone := *r
			if r.Values != nil {
				clone.Values = make(schema.ResponseMap, len(r.Values))
				for k, v := range r.Values {
					clone.Values[k] = v
				}
			}
			out.Responses[id] = &clone
		}
	}
	if a.SubmittedAt != nil {
		t := *a.SubmittedAt
		out.SubmittedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}

	// The frozen snapshot is written once and never mutated afterwards, so
	// sharing the pointer is safe.
	return &out
}
