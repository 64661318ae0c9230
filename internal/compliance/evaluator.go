// Package compliance scores captured responses against indicator checklists:
// the 3+1 minimum-requirement rule per indicator, aggregation-policy results
// per governance area, and 4-tier functionality ratings for institution
// subjects. The evaluator is role-agnostic and always computes full results;
// hiding data from a reader is the projection's job, not the evaluator's.
package compliance

import (
	"fmt"
	"log/slog"
	"time"

	"govseal/internal/catalog"
	"govseal/internal/schema"
	"govseal/pkg/domain"
)

// ItemStatus is the scored state of one checklist item.
type ItemStatus string

const (
	// StatusMet means the referenced field carries a satisfying value.
	StatusMet ItemStatus = "met"

	// StatusConsidered means a date-bound item missed its deadline but
	// landed inside the grace window.
	StatusConsidered ItemStatus = "considered"

	// StatusUnmet is the safe default for everything else, including
	// items whose referenced field is inactive or misconfigured.
	StatusUnmet ItemStatus = "unmet"
)

// Verdict is the per-indicator (and per-area) compliance outcome.
type Verdict string

const (
	VerdictPass Verdict = "PASS"

	// VerdictConditional marks an indicator that would fail on strictly
	// met items but reaches its threshold once considered items count.
	VerdictConditional Verdict = "CONDITIONAL"

	VerdictFail Verdict = "FAIL"
)

// ItemResult is one scored checklist item.
type ItemResult struct {
	ItemID string     `json:"item_id"`
	Label  string     `json:"label"`
	Core   bool       `json:"core"`
	Status ItemStatus `json:"status"`
}

// IndicatorResult is the scored checklist of one indicator.
type IndicatorResult struct {
	IndicatorID domain.IndicatorID `json:"indicator_id"`
	AreaID      domain.AreaID      `json:"area_id"`
	Verdict     Verdict            `json:"verdict"`
	Items       []ItemResult       `json:"items"`

	// Anomalies records configuration defects that forced a safe-default
	// score. A non-empty list means the verdict degraded, never passed.
	Anomalies []string `json:"anomalies,omitempty"`
}

// AreaResult is the aggregated outcome of one governance area.
type AreaResult struct {
	AreaID  domain.AreaID `json:"area_id"`
	Title   string        `json:"title"`
	Verdict Verdict       `json:"verdict"`
	Passed  int           `json:"passed"`
	Total   int           `json:"total"`
}

// InstitutionRating is the 4-tier functionality score of one institution
// subject, derived from its checklist items acting as sub-indicators.
type InstitutionRating struct {
	IndicatorID domain.IndicatorID `json:"indicator_id"`
	Title       string             `json:"title"`
	Percentage  float64            `json:"percentage"`
	Rating      Rating             `json:"rating"`
	SubResults  []ItemResult       `json:"sub_results"`
}

// OverallRating is the assessment-wide institution score: the mean
// percentage across institution subjects, mapped through the same table.
type OverallRating struct {
	Percentage float64 `json:"percentage"`
	Rating     Rating  `json:"rating"`
}

// Report is the full compliance evaluation of one assessment.
type Report struct {
	Indicators   []IndicatorResult   `json:"indicator_results"`
	Areas        []AreaResult        `json:"area_results"`
	Institutions []InstitutionRating `json:"institution_ratings"`
	Overall      OverallRating       `json:"overall_rating"`
}

// Input carries the captured state the evaluator scores.
type Input struct {
	// Responses maps indicator id to its raw response values.
	Responses map[domain.IndicatorID]schema.ResponseMap

	// Evidence resolves the evidence checker for one indicator. Nil, or a
	// nil return, means no qualifying evidence anywhere.
	Evidence func(domain.IndicatorID) schema.EvidenceChecker
}

// Evaluator scores assessments against a loaded catalog.
type Evaluator struct {
	log *slog.Logger
}

// New creates an evaluator. Configuration anomalies found during scoring
// are logged through the given logger and recorded on the result.
func New(log *slog.Logger) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{log: log}
}

// Evaluate scores every indicator in the catalog, aggregates areas, and
// rates institution subjects. It is pure apart from anomaly logging.
func (e *Evaluator) Evaluate(cat *catalog.Catalog, in Input) *Report {
	report := &Report{}
	byIndicator := make(map[domain.IndicatorID]IndicatorResult)

	for _, ind := range cat.Indicators() {
		res := e.EvaluateIndicator(ind, in.responses(ind.ID), in.evidence(ind.ID))
		report.Indicators = append(report.Indicators, res)
		byIndicator[ind.ID] = res
	}

	for i := range cat.Areas {
		report.Areas = append(report.Areas, e.aggregateArea(&cat.Areas[i], byIndicator))
	}

	var sum float64
	for _, ind := range cat.InstitutionIndicators() {
		rating := rateInstitution(ind, byIndicator[ind.ID])
		report.Institutions = append(report.Institutions, rating)
		sum += rating.Percentage
	}
	if n := len(report.Institutions); n > 0 {
		mean := sum / float64(n)
		report.Overall = OverallRating{Percentage: mean, Rating: RatingFor(mean)}
	} else {
		report.Overall = OverallRating{Percentage: 0, Rating: RatingNonFunctional}
	}

	return report
}

// EvaluateIndicator scores one indicator's checklist and applies its 3+1
// rule. Items whose referenced field is inactive score unmet; a considered
// item that lifts an otherwise-failing indicator over the threshold yields
// Conditional instead of Fail.
func (e *Evaluator) EvaluateIndicator(ind *catalog.Indicator, responses schema.ResponseMap, evidence schema.EvidenceChecker) IndicatorResult {
	result := IndicatorResult{IndicatorID: ind.ID, AreaID: ind.AreaID}

	active := ind.Form.ActiveFields(responses)
	validation := ind.Form.Validate(responses, evidence)
	invalid := make(map[string]bool, len(validation.Errors))
	for _, fe := range validation.Errors {
		invalid[fe.FieldID] = true
	}
	graced := make(map[string]bool, len(validation.Considered))
	for _, id := range validation.Considered {
		graced[id] = true
	}

	for _, item := range ind.Checklist {
		status := e.scoreItem(ind, item, responses, evidence, active, invalid, graced, &result)
		result.Items = append(result.Items, ItemResult{
			ItemID: item.ID,
			Label:  item.Label,
			Core:   item.Core,
			Status: status,
		})
	}

	result.Verdict = e.applyRule(ind, &result)
	return result
}

func (e *Evaluator) scoreItem(
	ind *catalog.Indicator,
	item catalog.ChecklistItem,
	responses schema.ResponseMap,
	evidence schema.EvidenceChecker,
	active map[string]bool,
	invalid map[string]bool,
	graced map[string]bool,
	result *IndicatorResult,
) ItemStatus {
	field, ok := ind.Form.Field(item.FieldID)
	if !ok {
		e.anomaly(result, fmt.Sprintf("checklist item %q references unknown field %q", item.ID, item.FieldID))
		return StatusUnmet
	}
	if !active[item.FieldID] || invalid[item.FieldID] {
		return StatusUnmet
	}

	if field.Kind == schema.KindFile {
		if evidence != nil && evidence.HasQualifyingEvidence(item.FieldID) {
			return StatusMet
		}
		return StatusUnmet
	}

	value := responses[item.FieldID]
	if valueEmpty(value) {
		return StatusUnmet
	}

	if item.Deadline != "" {
		return scoreDeadline(item, value)
	}
	if graced[item.FieldID] {
		return StatusConsidered
	}
	return StatusMet
}

// scoreDeadline applies an item-level deadline to a date value. The item
// deadline wins over any field-level bound.
func scoreDeadline(item catalog.ChecklistItem, value any) ItemStatus {
	raw, ok := value.(string)
	if !ok {
		return StatusUnmet
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return StatusUnmet
	}
	deadline, err := time.Parse("2006-01-02", item.Deadline)
	if err != nil {
		return StatusUnmet
	}
	if !d.After(deadline) {
		return StatusMet
	}
	if item.Grace > 0 && !d.After(deadline.Add(item.Grace)) {
		return StatusConsidered
	}
	return StatusUnmet
}

// applyRule maps scored items through the indicator's 3+1 threshold.
func (e *Evaluator) applyRule(ind *catalog.Indicator, result *IndicatorResult) Verdict {
	var coreTotal, coreMet, coreSoft int
	var bonusTotal, bonusMet, bonusSoft int
	for _, item := range result.Items {
		if item.Core {
			coreTotal++
			switch item.Status {
			case StatusMet:
				coreMet++
				coreSoft++
			case StatusConsidered:
				coreSoft++
			}
		} else {
			bonusTotal++
			switch item.Status {
			case StatusMet:
				bonusMet++
				bonusSoft++
			case StatusConsidered:
				bonusSoft++
			}
		}
	}

	rule := ind.Rule
	if rule.RequiredCore < 0 || rule.RequiredCore > coreTotal {
		e.anomaly(result, fmt.Sprintf("rule requires %d core items but checklist declares %d", rule.RequiredCore, coreTotal))
		return VerdictFail
	}
	if rule.RequireBonus && bonusTotal == 0 {
		e.anomaly(result, "rule requires a bonus item but checklist declares none")
		return VerdictFail
	}

	if coreMet >= rule.RequiredCore && (!rule.RequireBonus || bonusMet > 0) {
		return VerdictPass
	}
	if coreSoft >= rule.RequiredCore && (!rule.RequireBonus || bonusSoft > 0) {
		return VerdictConditional
	}
	return VerdictFail
}

func (e *Evaluator) anomaly(result *IndicatorResult, msg string) {
	result.Anomalies = append(result.Anomalies, msg)
	e.log.Warn("compliance configuration anomaly",
		"indicator_id", string(result.IndicatorID),
		"detail", msg,
	)
}

func (in Input) responses(id domain.IndicatorID) schema.ResponseMap {
	if in.Responses == nil {
		return nil
	}
	return in.Responses[id]
}

func (in Input) evidence(id domain.IndicatorID) schema.EvidenceChecker {
	if in.Evidence == nil {
		return nil
	}
	return in.Evidence(id)
}

func valueEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
