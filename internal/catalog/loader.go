package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"govseal/internal/schema"
	"govseal/pkg/domain"
	dErrors "govseal/pkg/domain-errors"
)

// yamlCatalog mirrors the authored catalog document. The loader converts it
// into compiled domain types; nothing outside this file sees the YAML shape.
type yamlCatalog struct {
	CycleYear int        `yaml:"cycle_year"`
	Areas     []yamlArea `yaml:"areas"`
}

type yamlArea struct {
	ID         string          `yaml:"id"`
	Title      string          `yaml:"title"`
	Policy     yamlPolicy      `yaml:"policy"`
	Indicators []yamlIndicator `yaml:"indicators"`
}

type yamlPolicy struct {
	Kind string `yaml:"kind"`
	Min  int    `yaml:"min"`
}

type yamlIndicator struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Institution bool            `yaml:"institution"`
	Rule        yamlRule        `yaml:"rule"`
	Fields      []yamlField     `yaml:"fields"`
	Checklist   []yamlChecklist `yaml:"checklist"`
}

type yamlRule struct {
	RequiredCore int  `yaml:"required_core"`
	RequireBonus bool `yaml:"require_bonus"`
}

type yamlField struct {
	ID         string          `yaml:"id"`
	Label      string          `yaml:"label"`
	Kind       string          `yaml:"kind"`
	Required   bool            `yaml:"required"`
	MaxLength  int             `yaml:"max_length"`
	Min        *float64        `yaml:"min"`
	Max        *float64        `yaml:"max"`
	NotBefore  string          `yaml:"not_before"`
	NotAfter   string          `yaml:"not_after"`
	GraceDays  int             `yaml:"grace_days"`
	Options    []string        `yaml:"options"`
	Conditions []yamlCondition `yaml:"conditions"`
}

type yamlCondition struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
}

type yamlChecklist struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Field     string `yaml:"field"`
	Core      bool   `yaml:"core"`
	Deadline  string `yaml:"deadline"`
	GraceDays int    `yaml:"grace_days"`
}

// LoadFile reads and compiles a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(raw)
}

// Load compiles a catalog from YAML bytes. Any structural problem — in the
// document, a field schema, or a checklist reference — is a configuration
// error naming the offending element so the catalog author can fix it.
func Load(raw []byte) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "catalog is not valid YAML")
	}
	if len(doc.Areas) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "catalog declares no governance areas")
	}

	cat := &Catalog{CycleYear: doc.CycleYear}
	seenAreas := make(map[string]bool)
	seenIndicators := make(map[string]bool)

	for _, ya := range doc.Areas {
		if ya.ID == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration, "governance area with empty id")
		}
		if seenAreas[ya.ID] {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate governance area %q", ya.ID)
		}
		seenAreas[ya.ID] = true

		policy, err := convertPolicy(ya)
		if err != nil {
			return nil, err
		}

		area := GovernanceArea{
			ID:     domain.AreaID(ya.ID),
			Title:  ya.Title,
			Policy: policy,
		}

		for _, yi := range ya.Indicators {
			if yi.ID == "" {
				return nil, dErrors.Newf(dErrors.CodeConfiguration, "area %q has an indicator with empty id", ya.ID)
			}
			if seenIndicators[yi.ID] {
				return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate indicator %q", yi.ID)
			}
			seenIndicators[yi.ID] = true

			ind, err := convertIndicator(area.ID, yi)
			if err != nil {
				return nil, err
			}
			area.Indicators = append(area.Indicators, ind)
		}

		cat.Areas = append(cat.Areas, area)
	}

	cat.buildIndex()
	return cat, nil
}

func convertPolicy(ya yamlArea) (AggregationPolicy, error) {
	switch ya.Policy.Kind {
	case "", string(PolicyAllPass):
		return AggregationPolicy{Kind: PolicyAllPass}, nil
	case string(PolicyMinPass):
		if ya.Policy.Min <= 0 {
			return AggregationPolicy{}, dErrors.Newf(dErrors.CodeConfiguration,
				"area %q uses min_pass without a positive min", ya.ID)
		}
		return AggregationPolicy{Kind: PolicyMinPass, Min: ya.Policy.Min}, nil
	default:
		return AggregationPolicy{}, dErrors.Newf(dErrors.CodeConfiguration,
			"area %q has unknown aggregation policy %q", ya.ID, ya.Policy.Kind)
	}
}

func convertIndicator(areaID domain.AreaID, yi yamlIndicator) (Indicator, error) {
	fields := make([]schema.Field, 0, len(yi.Fields))
	for _, yf := range yi.Fields {
		fields = append(fields, convertField(yf))
	}

	compiled, err := schema.Compile(schema.Schema{Fields: fields})
	if err != nil {
		return Indicator{}, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("indicator %q has a malformed form schema", yi.ID))
	}

	checklist := make([]ChecklistItem, 0, len(yi.Checklist))
	for _, yc := range yi.Checklist {
		if yc.ID == "" {
			return Indicator{}, dErrors.Newf(dErrors.CodeConfiguration,
				"indicator %q has a checklist item with empty id", yi.ID)
		}
		if _, ok := compiled.Field(yc.Field); !ok {
			return Indicator{}, dErrors.Newf(dErrors.CodeConfiguration,
				"indicator %q checklist item %q references unknown field %q", yi.ID, yc.ID, yc.Field)
		}
		checklist = append(checklist, ChecklistItem{
			ID:       yc.ID,
			Label:    yc.Label,
			FieldID:  yc.Field,
			Core:     yc.Core,
			Deadline: yc.Deadline,
			Grace:    time.Duration(yc.GraceDays) * 24 * time.Hour,
		})
	}

	return Indicator{
		ID:          domain.IndicatorID(yi.ID),
		AreaID:      areaID,
		Title:       yi.Title,
		Form:        compiled,
		Checklist:   checklist,
		Rule:        ComplianceRule{RequiredCore: yi.Rule.RequiredCore, RequireBonus: yi.Rule.RequireBonus},
		Institution: yi.Institution,
	}, nil
}

func convertField(yf yamlField) schema.Field {
	f := schema.Field{
		ID:       yf.ID,
		Label:    yf.Label,
		Kind:     schema.FieldKind(yf.Kind),
		Required: yf.Required,
		Options:  yf.Options,
	}
	switch f.Kind {
	case schema.KindText, schema.KindTextarea:
		if yf.MaxLength > 0 {
			f.Text = &schema.TextRules{MaxLength: yf.MaxLength}
		}
	case schema.KindNumber:
		if yf.Min != nil || yf.Max != nil {
			f.Number = &schema.NumberRules{Min: yf.Min, Max: yf.Max}
		}
	case schema.KindDate:
		if yf.NotBefore != "" || yf.NotAfter != "" || yf.GraceDays > 0 {
			f.Date = &schema.DateRules{
				NotBefore: yf.NotBefore,
				NotAfter:  yf.NotAfter,
				Grace:     time.Duration(yf.GraceDays) * 24 * time.Hour,
			}
		}
	}
	for _, yc := range yf.Conditions {
		f.Conditions = append(f.Conditions, schema.Condition{
			FieldID:  yc.Field,
			Operator: schema.Operator(yc.Op),
			Value:    yc.Value,
		})
	}
	return f
}
