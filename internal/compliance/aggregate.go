package compliance

import (
	"fmt"

	"govseal/internal/catalog"
	"govseal/pkg/domain"
)

// aggregateArea folds an area's indicator verdicts through its aggregation
// policy. Conditional counts toward the pass threshold but keeps the area
// at Conditional rather than Pass. An unknown policy kind degrades to Fail
// with a logged anomaly.
func (e *Evaluator) aggregateArea(area *catalog.GovernanceArea, results map[domain.IndicatorID]IndicatorResult) AreaResult {
	out := AreaResult{
		AreaID: area.ID,
		Title:  area.Title,
		Total:  len(area.Indicators),
	}

	conditional := false
	for i := range area.Indicators {
		switch results[area.Indicators[i].ID].Verdict {
		case VerdictPass:
			out.Passed++
		case VerdictConditional:
			out.Passed++
			conditional = true
		}
	}

	var reached bool
	switch area.Policy.Kind {
	case catalog.PolicyAllPass:
		reached = out.Passed == out.Total && out.Total > 0
	case catalog.PolicyMinPass:
		reached = out.Passed >= area.Policy.Min
	default:
		e.log.Warn("compliance configuration anomaly",
			"area_id", string(area.ID),
			"detail", fmt.Sprintf("unknown aggregation policy %q", area.Policy.Kind),
		)
		out.Verdict = VerdictFail
		return out
	}

	switch {
	case !reached:
		out.Verdict = VerdictFail
	case conditional:
		out.Verdict = VerdictConditional
	default:
		out.Verdict = VerdictPass
	}
	return out
}
