// Package catalog defines the assessment catalog: governance areas, their
// ordered indicators, response form schemas, and minimum-requirement
// checklists. The catalog is authored in YAML, loaded once at startup, and
// immutable afterwards.
package catalog

import (
	"time"

	"govseal/internal/schema"
	"govseal/pkg/domain"
)

// ChecklistItem is one minimum requirement scored by the compliance
// evaluator. It references the response field whose captured value (or
// attached evidence, for file fields) satisfies it.
type ChecklistItem struct {
	ID      string
	Label   string
	FieldID string

	// Core marks the item as part of the fixed core-requirement count.
	// Non-core items are the conditional/bonus side of the 3+1 rule.
	Core bool

	// Deadline is an ISO date for date-bound items. Empty means the item
	// has no deadline of its own.
	Deadline string

	// Grace extends the deadline; a date inside the window scores
	// "considered" instead of unmet.
	Grace time.Duration
}

// ComplianceRule is the pass threshold for an indicator's checklist.
type ComplianceRule struct {
	// RequiredCore is how many core items must be met (the "3" of 3+1).
	RequiredCore int

	// RequireBonus demands at least one non-core item met (the "+1").
	RequireBonus bool
}

// Indicator is an atomic assessed requirement: a response form plus the
// checklist the compliance evaluator scores against it.
type Indicator struct {
	ID     domain.IndicatorID
	AreaID domain.AreaID
	Title  string

	// Form is the compiled response schema for this indicator.
	Form *schema.Compiled

	Checklist []ChecklistItem
	Rule      ComplianceRule

	// Institution marks a fixed scoring subject (BBI). Its checklist items
	// act as sub-indicators for the 4-tier functionality rating.
	Institution bool
}

// PolicyKind selects how indicator results aggregate into an area result.
type PolicyKind string

const (
	// PolicyAllPass requires every indicator in the area to pass.
	PolicyAllPass PolicyKind = "all_pass"

	// PolicyMinPass requires at least Min indicators to pass.
	PolicyMinPass PolicyKind = "min_pass"
)

// AggregationPolicy configures area-level aggregation.
type AggregationPolicy struct {
	Kind PolicyKind
	Min  int
}

// GovernanceArea is a named scoring category owning ordered indicators.
type GovernanceArea struct {
	ID         domain.AreaID
	Title      string
	Policy     AggregationPolicy
	Indicators []Indicator
}

// Catalog is the full set of governance areas for one assessment cycle.
type Catalog struct {
	CycleYear int
	Areas     []GovernanceArea

	indicators map[domain.IndicatorID]*Indicator
}

// Indicator looks up an indicator by id across all areas.
func (c *Catalog) Indicator(id domain.IndicatorID) (*Indicator, bool) {
	ind, ok := c.indicators[id]
	return ind, ok
}

// Indicators returns every indicator in area-then-declaration order.
func (c *Catalog) Indicators() []*Indicator {
	out := make([]*Indicator, 0, len(c.indicators))
	for i := range c.Areas {
		area := &c.Areas[i]
		for j := range area.Indicators {
			out = append(out, &area.Indicators[j])
		}
	}
	return out
}

// InstitutionIndicators returns the fixed institution (BBI) scoring
// subjects in catalog order.
func (c *Catalog) InstitutionIndicators() []*Indicator {
	out := make([]*Indicator, 0, 4)
	for _, ind := range c.Indicators() {
		if ind.Institution {
			out = append(out, ind)
		}
	}
	return out
}

func (c *Catalog) buildIndex() {
	c.indicators = make(map[domain.IndicatorID]*Indicator)
	for i := range c.Areas {
		area := &c.Areas[i]
		for j := range area.Indicators {
			ind := &area.Indicators[j]
			c.indicators[ind.ID] = ind
		}
	}
}
