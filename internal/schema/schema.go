// Package schema models indicator response forms and validates captured
// responses against them.
//
// A Schema is an ordered list of typed fields with optional conditional
// visibility clauses. Schemas are compiled once at catalog load; a malformed
// schema (duplicate ids, unknown kind, invalid operator, dangling condition
// target, conditional-dependency cycle) is a configuration error that blocks
// every validation against it. Validation itself is pure and stateless.
package schema

import (
	"time"

	dErrors "govseal/pkg/domain-errors"
)

// FieldKind is the closed set of supported field types.
type FieldKind string

const (
	KindText          FieldKind = "text"
	KindTextarea      FieldKind = "textarea"
	KindNumber        FieldKind = "number"
	KindDate          FieldKind = "date"
	KindSelect        FieldKind = "select"
	KindCheckboxGroup FieldKind = "checkbox_group"
	KindFile          FieldKind = "file"
)

func (k FieldKind) known() bool {
	switch k {
	case KindText, KindTextarea, KindNumber, KindDate, KindSelect, KindCheckboxGroup, KindFile:
		return true
	}
	return false
}

// Operator is a conditional visibility comparison operator.
type Operator string

const (
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

func (o Operator) known() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// Condition gates a field's visibility on another field's current value.
// All conditions on a field must hold (AND semantics) for it to be active.
type Condition struct {
	FieldID  string
	Operator Operator
	Value    string
}

// TextRules carries constraints for text and textarea fields.
type TextRules struct {
	// MaxLength bounds the trimmed value length; 0 means unbounded.
	MaxLength int
}

// NumberRules carries constraints for number fields. Bounds are inclusive.
type NumberRules struct {
	Min *float64
	Max *float64
}

// DateRules carries constraints for date fields. Dates are ISO (2006-01-02).
type DateRules struct {
	NotBefore string
	NotAfter  string

	// Grace extends NotAfter: a value inside the window is reported as
	// "considered" instead of invalid.
	Grace time.Duration
}

// Field is one entry in a response form. Kind-specific constraints live in
// the matching rules struct; the others stay nil.
type Field struct {
	ID         string
	Label      string
	Kind       FieldKind
	Required   bool
	Text       *TextRules
	Number     *NumberRules
	Date       *DateRules
	Options    []string
	Conditions []Condition
}

// Schema is an ordered field list as authored in the catalog.
type Schema struct {
	Fields []Field
}

// Compiled is a schema that passed structural validation. Fields keep their
// declaration order; evalOrder is a topological order over the
// conditional-dependency graph used to resolve visibility.
type Compiled struct {
	fields    []Field
	index     map[string]int
	evalOrder []int
}

// Fields returns the declared fields in order.
func (c *Compiled) Fields() []Field { return c.fields }

// Field looks up a field by id.
func (c *Compiled) Field(id string) (Field, bool) {
	i, ok := c.index[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Compile validates schema structure and resolves the conditional-dependency
// order. Every returned error carries CodeConfiguration: the schema author
// must fix it, callers must not retry.
func Compile(s Schema) (*Compiled, error) {
	index := make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.ID == "" {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "field %d has an empty id", i)
		}
		if _, dup := index[f.ID]; dup {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "duplicate field id %q", f.ID)
		}
		if !f.Kind.known() {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "field %q has unknown kind %q", f.ID, f.Kind)
		}
		if (f.Kind == KindSelect || f.Kind == KindCheckboxGroup) && len(f.Options) == 0 {
			return nil, dErrors.Newf(dErrors.CodeConfiguration, "field %q declares no options", f.ID)
		}
		index[f.ID] = i
	}

	for _, f := range s.Fields {
		for _, cond := range f.Conditions {
			if !cond.Operator.known() {
				return nil, dErrors.Newf(dErrors.CodeConfiguration,
					"field %q condition uses invalid operator %q", f.ID, cond.Operator)
			}
			if _, ok := index[cond.FieldID]; !ok {
				return nil, dErrors.Newf(dErrors.CodeConfiguration,
					"field %q condition references unknown field %q", f.ID, cond.FieldID)
			}
		}
	}

	order, err := topoOrder(s.Fields, index)
	if err != nil {
		return nil, err
	}

	return &Compiled{fields: s.Fields, index: index, evalOrder: order}, nil
}

// topoOrder runs Kahn's algorithm over the conditional-dependency graph
// (edge: condition target -> dependent field). A leftover node means a cycle.
func topoOrder(fields []Field, index map[string]int) ([]int, error) {
	n := len(fields)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, f := range fields {
		for _, cond := range f.Conditions {
			t := index[cond.FieldID]
			dependents[t] = append(dependents[t], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i := range n {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) != n {
		cyclic := make([]string, 0)
		for i := range n {
			if indegree[i] > 0 {
				cyclic = append(cyclic, fields[i].ID)
			}
		}
		return nil, dErrors.Newf(dErrors.CodeConfiguration,
			"conditional dependency cycle involving fields %v", cyclic)
	}
	return order, nil
}
