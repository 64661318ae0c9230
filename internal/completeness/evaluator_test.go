package completeness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govseal/internal/catalog"
	"govseal/internal/schema"
	"govseal/pkg/domain"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	doc := `
cycle_year: 2026
areas:
  - id: safety
    indicators:
      - id: safety.1
        fields:
          - id: organized
            kind: select
            required: true
            options: ["yes", "no"]
          - id: minutes
            kind: file
            required: true
      - id: safety.2
        fields:
          - id: summary
            kind: textarea
            required: true
`
	cat, err := catalog.Load([]byte(doc))
	require.NoError(t, err)
	return cat
}

type evidenceFake map[string]bool

func (f evidenceFake) HasQualifyingEvidence(fieldID string) bool { return f[fieldID] }

func TestEvaluate_CompleteAssessment(t *testing.T) {
	cat := testCatalog(t)

	res := Evaluate(cat, Input{
		Responses: map[domain.IndicatorID]schema.ResponseMap{
			"safety.1": {"organized": "yes"},
			"safety.2": {"summary": "done"},
		},
		Evidence: func(domain.IndicatorID) schema.EvidenceChecker {
			return evidenceFake{"minutes": true}
		},
	})

	assert.True(t, res.IsComplete)
	assert.Empty(t, res.Incomplete)
}

func TestEvaluate_ReportsGapsPerIndicator(t *testing.T) {
	cat := testCatalog(t)

	res := Evaluate(cat, Input{
		Responses: map[domain.IndicatorID]schema.ResponseMap{
			"safety.1": {"organized": "yes"},
		},
	})

	assert.False(t, res.IsComplete)
	require.Len(t, res.Incomplete, 2)

	first := res.Incomplete[0]
	assert.Equal(t, domain.IndicatorID("safety.1"), first.IndicatorID)
	assert.Empty(t, first.MissingFields)
	assert.Equal(t, []string{"minutes"}, first.EvidenceGaps)

	second := res.Incomplete[1]
	assert.Equal(t, domain.IndicatorID("safety.2"), second.IndicatorID)
	require.Len(t, second.MissingFields, 1)
	assert.Equal(t, "summary", second.MissingFields[0].FieldID)
	assert.Equal(t, schema.ErrRequired, second.MissingFields[0].Kind)
}

func TestEvaluateSubset_ChecksOnlyFlaggedIndicators(t *testing.T) {
	cat := testCatalog(t)

	in := Input{
		Responses: map[domain.IndicatorID]schema.ResponseMap{
			"safety.2": {"summary": "done"},
		},
	}

	// safety.1 is incomplete but outside the subset.
	res := EvaluateSubset(cat, in, []domain.IndicatorID{"safety.2"})
	assert.True(t, res.IsComplete)

	res = EvaluateSubset(cat, in, []domain.IndicatorID{"safety.1", "safety.2"})
	assert.False(t, res.IsComplete)
	require.Len(t, res.Incomplete, 1)
	assert.Equal(t, domain.IndicatorID("safety.1"), res.Incomplete[0].IndicatorID)
}

func TestEvaluate_OutputCarriesNoVerdicts(t *testing.T) {
	cat := testCatalog(t)

	res := Evaluate(cat, Input{})
	assert.False(t, res.IsComplete)
	for _, status := range res.Incomplete {
		for _, fe := range status.MissingFields {
			assert.NotEmpty(t, fe.Message)
		}
	}
}
