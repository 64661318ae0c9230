package compliance

import (
	"govseal/pkg/domain"
)

// Project filters a report for the reading role. Reviewing actors always
// see the full report. The submitting actor sees nothing until the
// assessment is completed, and even then only outcomes: per-item statuses
// stay hidden so compliance scoring cannot be reverse-engineered from the
// submission side.
func Project(report *Report, role domain.Role, completed bool) *Report {
	if report == nil || role.IsReviewer() {
		return report
	}
	if !completed {
		return nil
	}

	out := &Report{
		Areas:   report.Areas,
		Overall: report.Overall,
	}
	for _, ind := range report.Indicators {
		out.Indicators = append(out.Indicators, IndicatorResult{
			IndicatorID: ind.IndicatorID,
			AreaID:      ind.AreaID,
			Verdict:     ind.Verdict,
		})
	}
	for _, inst := range report.Institutions {
		out.Institutions = append(out.Institutions, InstitutionRating{
			IndicatorID: inst.IndicatorID,
			Title:       inst.Title,
			Percentage:  inst.Percentage,
			Rating:      inst.Rating,
		})
	}
	return out
}
