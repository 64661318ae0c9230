package compliance

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govseal/internal/catalog"
	"govseal/internal/schema"
	"govseal/pkg/domain"
)

type EvaluatorSuite struct {
	suite.Suite
	eval *Evaluator
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.eval = New(slog.New(slog.DiscardHandler))
}

// coreIndicator builds an indicator with n core text fields, one checklist
// item per field, and the given threshold.
func (s *EvaluatorSuite) coreIndicator(n, requiredCore int) *catalog.Indicator {
	fields := make([]schema.Field, 0, n)
	checklist := make([]catalog.ChecklistItem, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		fields = append(fields, schema.Field{ID: id, Kind: schema.KindText})
		checklist = append(checklist, catalog.ChecklistItem{ID: "item-" + id, FieldID: id, Core: true})
	}
	form, err := schema.Compile(schema.Schema{Fields: fields})
	s.Require().NoError(err)
	return &catalog.Indicator{
		ID:        domain.IndicatorID("test.1"),
		AreaID:    domain.AreaID("test"),
		Form:      form,
		Checklist: checklist,
		Rule:      catalog.ComplianceRule{RequiredCore: requiredCore},
	}
}

func (s *EvaluatorSuite) TestThreeOfFourThreshold() {
	ind := s.coreIndicator(4, 3)

	three := schema.ResponseMap{"a": "x", "b": "x", "c": "x"}
	res := s.eval.EvaluateIndicator(ind, three, nil)
	s.Equal(VerdictPass, res.Verdict)
	s.Len(res.Items, 4)

	two := schema.ResponseMap{"a": "x", "b": "x"}
	res = s.eval.EvaluateIndicator(ind, two, nil)
	s.Equal(VerdictFail, res.Verdict)
}

func (s *EvaluatorSuite) TestBonusRequirement() {
	fields := []schema.Field{
		{ID: "core1", Kind: schema.KindText},
		{ID: "core2", Kind: schema.KindText},
		{ID: "bonus", Kind: schema.KindText},
	}
	form, err := schema.Compile(schema.Schema{Fields: fields})
	s.Require().NoError(err)
	ind := &catalog.Indicator{
		ID:   domain.IndicatorID("test.2"),
		Form: form,
		Checklist: []catalog.ChecklistItem{
			{ID: "c1", FieldID: "core1", Core: true},
			{ID: "c2", FieldID: "core2", Core: true},
			{ID: "b1", FieldID: "bonus", Core: false},
		},
		Rule: catalog.ComplianceRule{RequiredCore: 2, RequireBonus: true},
	}

	coreOnly := schema.ResponseMap{"core1": "x", "core2": "x"}
	s.Equal(VerdictFail, s.eval.EvaluateIndicator(ind, coreOnly, nil).Verdict)

	withBonus := schema.ResponseMap{"core1": "x", "core2": "x", "bonus": "x"}
	s.Equal(VerdictPass, s.eval.EvaluateIndicator(ind, withBonus, nil).Verdict)
}

func (s *EvaluatorSuite) TestGraceWindowYieldsConditional() {
	form, err := schema.Compile(schema.Schema{Fields: []schema.Field{
		{ID: "adopted", Kind: schema.KindDate, Required: true},
	}})
	s.Require().NoError(err)
	ind := &catalog.Indicator{
		ID:   domain.IndicatorID("test.3"),
		Form: form,
		Checklist: []catalog.ChecklistItem{
			{ID: "on-time", FieldID: "adopted", Core: true, Deadline: "2025-06-30", Grace: 15 * 24 * time.Hour},
		},
		Rule: catalog.ComplianceRule{RequiredCore: 1},
	}

	onTime := s.eval.EvaluateIndicator(ind, schema.ResponseMap{"adopted": "2025-06-15"}, nil)
	s.Equal(VerdictPass, onTime.Verdict)
	s.Equal(StatusMet, onTime.Items[0].Status)

	inGrace := s.eval.EvaluateIndicator(ind, schema.ResponseMap{"adopted": "2025-07-10"}, nil)
	s.Equal(VerdictConditional, inGrace.Verdict)
	s.Equal(StatusConsidered, inGrace.Items[0].Status)

	late := s.eval.EvaluateIndicator(ind, schema.ResponseMap{"adopted": "2025-08-01"}, nil)
	s.Equal(VerdictFail, late.Verdict)
	s.Equal(StatusUnmet, late.Items[0].Status)
}

func (s *EvaluatorSuite) TestInactiveFieldScoresUnmet() {
	form, err := schema.Compile(schema.Schema{Fields: []schema.Field{
		{ID: "has_program", Kind: schema.KindSelect, Options: []string{"yes", "no"}},
		{ID: "program_budget", Kind: schema.KindNumber, Required: true, Conditions: []schema.Condition{
			{FieldID: "has_program", Operator: schema.OpEq, Value: "yes"},
		}},
	}})
	s.Require().NoError(err)
	ind := &catalog.Indicator{
		ID:   domain.IndicatorID("test.4"),
		Form: form,
		Checklist: []catalog.ChecklistItem{
			{ID: "budgeted", FieldID: "program_budget", Core: true},
		},
		Rule: catalog.ComplianceRule{RequiredCore: 1},
	}

	// A stored value behind a false condition must not satisfy the item.
	res := s.eval.EvaluateIndicator(ind, schema.ResponseMap{"has_program": "no", "program_budget": float64(5000)}, nil)
	s.Equal(StatusUnmet, res.Items[0].Status)
	s.Equal(VerdictFail, res.Verdict)

	res = s.eval.EvaluateIndicator(ind, schema.ResponseMap{"has_program": "yes", "program_budget": float64(5000)}, nil)
	s.Equal(StatusMet, res.Items[0].Status)
	s.Equal(VerdictPass, res.Verdict)
}

func (s *EvaluatorSuite) TestFileItemNeedsQualifyingEvidence() {
	form, err := schema.Compile(schema.Schema{Fields: []schema.Field{
		{ID: "minutes", Kind: schema.KindFile, Required: true},
	}})
	s.Require().NoError(err)
	ind := &catalog.Indicator{
		ID:   domain.IndicatorID("test.5"),
		Form: form,
		Checklist: []catalog.ChecklistItem{
			{ID: "filed", FieldID: "minutes", Core: true},
		},
		Rule: catalog.ComplianceRule{RequiredCore: 1},
	}

	s.Equal(VerdictFail, s.eval.EvaluateIndicator(ind, nil, nil).Verdict)
	s.Equal(VerdictFail, s.eval.EvaluateIndicator(ind, nil, evidenceFake{}).Verdict)
	s.Equal(VerdictPass, s.eval.EvaluateIndicator(ind, nil, evidenceFake{"minutes": true}).Verdict)
}

func (s *EvaluatorSuite) TestMalformedRuleDegradesToFail() {
	ind := s.coreIndicator(2, 3) // threshold exceeds declared core items

	res := s.eval.EvaluateIndicator(ind, schema.ResponseMap{"a": "x", "b": "x"}, nil)
	s.Equal(VerdictFail, res.Verdict)
	s.NotEmpty(res.Anomalies)
}

func (s *EvaluatorSuite) TestInstitutionRatingFourOfFive() {
	ind := s.coreIndicator(5, 5)
	ind.Institution = true
	cat := &catalog.Catalog{
		Areas: []catalog.GovernanceArea{{
			ID:         domain.AreaID("test"),
			Policy:     catalog.AggregationPolicy{Kind: catalog.PolicyAllPass},
			Indicators: []catalog.Indicator{*ind},
		}},
	}

	report := s.eval.Evaluate(cat, Input{
		Responses: map[domain.IndicatorID]schema.ResponseMap{
			ind.ID: {"a": "x", "b": "x", "c": "x", "d": "x"},
		},
	})

	s.Require().Len(report.Institutions, 1)
	inst := report.Institutions[0]
	s.InDelta(80.0, inst.Percentage, 1e-9)
	s.Equal(RatingHighlyFunctional, inst.Rating)
	s.Equal(RatingHighlyFunctional, report.Overall.Rating)
}

func (s *EvaluatorSuite) TestAreaAggregation() {
	pass := s.coreIndicator(1, 1)
	pass.ID = domain.IndicatorID("area.pass")
	fail := s.coreIndicator(1, 1)
	fail.ID = domain.IndicatorID("area.fail")

	responses := map[domain.IndicatorID]schema.ResponseMap{
		pass.ID: {"a": "x"},
	}

	allPass := &catalog.Catalog{Areas: []catalog.GovernanceArea{{
		ID:         domain.AreaID("area"),
		Policy:     catalog.AggregationPolicy{Kind: catalog.PolicyAllPass},
		Indicators: []catalog.Indicator{*pass, *fail},
	}}}
	report := s.eval.Evaluate(allPass, Input{Responses: responses})
	s.Require().Len(report.Areas, 1)
	s.Equal(VerdictFail, report.Areas[0].Verdict)
	s.Equal(1, report.Areas[0].Passed)
	s.Equal(2, report.Areas[0].Total)

	minPass := &catalog.Catalog{Areas: []catalog.GovernanceArea{{
		ID:         domain.AreaID("area"),
		Policy:     catalog.AggregationPolicy{Kind: catalog.PolicyMinPass, Min: 1},
		Indicators: []catalog.Indicator{*pass, *fail},
	}}}
	report = s.eval.Evaluate(minPass, Input{Responses: responses})
	s.Equal(VerdictPass, report.Areas[0].Verdict)
}

func (s *EvaluatorSuite) TestConditionalIndicatorKeepsAreaConditional() {
	form, err := schema.Compile(schema.Schema{Fields: []schema.Field{
		{ID: "adopted", Kind: schema.KindDate, Required: true},
	}})
	s.Require().NoError(err)
	ind := catalog.Indicator{
		ID:   domain.IndicatorID("area.1"),
		Form: form,
		Checklist: []catalog.ChecklistItem{
			{ID: "on-time", FieldID: "adopted", Core: true, Deadline: "2025-06-30", Grace: 15 * 24 * time.Hour},
		},
		Rule: catalog.ComplianceRule{RequiredCore: 1},
	}
	cat := &catalog.Catalog{Areas: []catalog.GovernanceArea{{
		ID:         domain.AreaID("area"),
		Policy:     catalog.AggregationPolicy{Kind: catalog.PolicyAllPass},
		Indicators: []catalog.Indicator{ind},
	}}}

	report := s.eval.Evaluate(cat, Input{Responses: map[domain.IndicatorID]schema.ResponseMap{
		ind.ID: {"adopted": "2025-07-05"},
	}})
	s.Equal(VerdictConditional, report.Indicators[0].Verdict)
	s.Equal(VerdictConditional, report.Areas[0].Verdict)
}

type evidenceFake map[string]bool

func (f evidenceFake) HasQualifyingEvidence(fieldID string) bool { return f[fieldID] }
