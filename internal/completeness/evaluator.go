// Package completeness answers one question: can this assessment be
// submitted. It runs the form validator per indicator and surfaces what is
// missing, deliberately without any pass/fail verdict, so the submitting
// actor can never infer compliance outcomes from completeness feedback.
package completeness

import (
	"govseal/internal/catalog"
	"govseal/internal/schema"
	"govseal/pkg/domain"
)

// IndicatorStatus is the completeness state of one indicator response.
type IndicatorStatus struct {
	IndicatorID domain.IndicatorID `json:"indicator_id"`
	Complete    bool               `json:"complete"`

	// MissingFields lists blocking findings for non-file fields.
	MissingFields []schema.FieldError `json:"missing_fields,omitempty"`

	// EvidenceGaps lists required file fields with no qualifying MOV.
	EvidenceGaps []string `json:"evidence_gaps,omitempty"`
}

// Result is the assessment-level completeness verdict: the conjunction of
// indicator completeness across the evaluated set.
type Result struct {
	IsComplete bool              `json:"is_complete"`
	Incomplete []IndicatorStatus `json:"incomplete_indicators,omitempty"`
}

// Input carries the captured state to evaluate, keyed the same way the
// compliance evaluator's input is.
type Input struct {
	Responses map[domain.IndicatorID]schema.ResponseMap
	Evidence  func(domain.IndicatorID) schema.EvidenceChecker
}

// Evaluate checks every indicator in the catalog.
func Evaluate(cat *catalog.Catalog, in Input) Result {
	return evaluate(cat.Indicators(), in)
}

// EvaluateSubset checks only the named indicators. Calibration resubmission
// uses this: only the flagged subset must be complete. Unknown ids are
// ignored.
func EvaluateSubset(cat *catalog.Catalog, in Input, subset []domain.IndicatorID) Result {
	indicators := make([]*catalog.Indicator, 0, len(subset))
	for _, id := range subset {
		if ind, ok := cat.Indicator(id); ok {
			indicators = append(indicators, ind)
		}
	}
	return evaluate(indicators, in)
}

func evaluate(indicators []*catalog.Indicator, in Input) Result {
	result := Result{IsComplete: true}
	for _, ind := range indicators {
		status := evaluateIndicator(ind, in)
		if !status.Complete {
			result.IsComplete = false
			result.Incomplete = append(result.Incomplete, status)
		}
	}
	return result
}

func evaluateIndicator(ind *catalog.Indicator, in Input) IndicatorStatus {
	status := IndicatorStatus{IndicatorID: ind.ID}

	var responses schema.ResponseMap
	if in.Responses != nil {
		responses = in.Responses[ind.ID]
	}
	var evidence schema.EvidenceChecker
	if in.Evidence != nil {
		evidence = in.Evidence(ind.ID)
	}

	validation := ind.Form.Validate(responses, evidence)
	for _, fe := range validation.Errors {
		if field, ok := ind.Form.Field(fe.FieldID); ok && field.Kind == schema.KindFile {
			status.EvidenceGaps = append(status.EvidenceGaps, fe.FieldID)
			continue
		}
		status.MissingFields = append(status.MissingFields, fe)
	}

	status.Complete = len(status.MissingFields) == 0 && len(status.EvidenceGaps) == 0
	return status
}
