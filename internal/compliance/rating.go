package compliance

import (
	"govseal/internal/catalog"
)

// Rating is the 4-tier functionality classification of an institution
// subject (BBI).
type Rating string

const (
	RatingHighlyFunctional     Rating = "HIGHLY_FUNCTIONAL"
	RatingModeratelyFunctional Rating = "MODERATELY_FUNCTIONAL"
	RatingLowFunctional        Rating = "LOW_FUNCTIONAL"
	RatingNonFunctional        Rating = "NON_FUNCTIONAL"
)

// RatingFor maps a percentage to its tier. Boundaries are exact: 75 rates
// highly functional, 74.999 does not; 50 rates moderately functional,
// 49.999 does not; only exactly zero rates non-functional.
func RatingFor(percentage float64) Rating {
	switch {
	case percentage >= 75:
		return RatingHighlyFunctional
	case percentage >= 50:
		return RatingModeratelyFunctional
	case percentage > 0:
		return RatingLowFunctional
	default:
		return RatingNonFunctional
	}
}

// rateInstitution scores one institution subject from its already-evaluated
// checklist. Each checklist item acts as a sub-indicator; met and considered
// items both count as passed. An empty checklist degrades to the safe
// default rather than dividing by zero.
func rateInstitution(ind *catalog.Indicator, result IndicatorResult) InstitutionRating {
	rating := InstitutionRating{
		IndicatorID: ind.ID,
		Title:       ind.Title,
		SubResults:  result.Items,
	}

	total := len(result.Items)
	if total == 0 {
		rating.Rating = RatingNonFunctional
		return rating
	}

	passed := 0
	for _, item := range result.Items {
		if item.Status == StatusMet || item.Status == StatusConsidered {
			passed++
		}
	}

	rating.Percentage = float64(passed) / float64(total) * 100
	rating.Rating = RatingFor(rating.Percentage)
	return rating
}
