package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResponseMap holds the raw captured values for one indicator response,
// keyed by field id. Values arrive JSON-decoded: strings, float64s, bools,
// or []any for checkbox groups.
type ResponseMap map[string]any

// EvidenceChecker answers whether qualifying evidence exists for a file
// field. The caller binds it to one (assessment, indicator) pair; the
// validator never sees file bytes or storage.
type EvidenceChecker interface {
	HasQualifyingEvidence(fieldID string) bool
}

// ErrorKind classifies a field validation error.
type ErrorKind string

const (
	// ErrRequired means an active required field has no usable value.
	ErrRequired ErrorKind = "required"

	// ErrInvalid means a present value violates the field's constraints.
	ErrInvalid ErrorKind = "invalid"
)

// FieldError is one validation finding.
type FieldError struct {
	FieldID string    `json:"field_id"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

// Result is the outcome of validating a response map.
type Result struct {
	// Errors lists blocking findings in field declaration order.
	Errors []FieldError `json:"errors"`

	// Considered lists fields whose date fell inside the grace window:
	// late but not invalid. They do not block submission.
	Considered []string `json:"considered,omitempty"`
}

// Valid reports whether the response passed. Considered findings do not
// count against validity.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

const dateLayout = "2006-01-02"

// Validate checks responses against the compiled schema. It is pure and
// idempotent: identical input yields an identical result.
//
// A field whose conditions evaluate false is inactive and skips every check
// regardless of its stored value. Conditions referencing a field that is
// itself inactive evaluate false, so hiding cascades down the dependency
// chain.
func (c *Compiled) Validate(responses ResponseMap, evidence EvidenceChecker) Result {
	active := c.resolveActive(responses)

	var result Result
	for _, f := range c.fields {
		if !active[f.ID] {
			continue
		}
		c.checkField(f, responses, evidence, &result)
	}
	return result
}

// ActiveFields resolves conditional visibility for the given responses.
// Exposed for evaluators that need to know which fields are in play without
// running a full validation.
func (c *Compiled) ActiveFields(responses ResponseMap) map[string]bool {
	return c.resolveActive(responses)
}

// resolveActive walks fields in topological order and marks each as active
// when every condition holds against an active referenced field.
func (c *Compiled) resolveActive(responses ResponseMap) map[string]bool {
	active := make(map[string]bool, len(c.fields))
	for _, i := range c.evalOrder {
		f := c.fields[i]
		on := true
		for _, cond := range f.Conditions {
			if !active[cond.FieldID] || !evalCondition(cond, responses[cond.FieldID]) {
				on = false
				break
			}
		}
		active[f.ID] = on
	}
	return active
}

func (c *Compiled) checkField(f Field, responses ResponseMap, evidence EvidenceChecker, result *Result) {
	value, present := responses[f.ID]

	switch f.Kind {
	case KindText, KindTextarea:
		text := strings.TrimSpace(stringify(value))
		if text == "" {
			if f.Required {
				result.addRequired(f, "value is required")
			}
			return
		}
		if f.Text != nil && f.Text.MaxLength > 0 && len(text) > f.Text.MaxLength {
			result.addInvalid(f, fmt.Sprintf("value exceeds maximum length of %d", f.Text.MaxLength))
		}

	case KindNumber:
		if !present || isEmpty(value) {
			if f.Required {
				result.addRequired(f, "value is required")
			}
			return
		}
		n, ok := toNumber(value)
		if !ok {
			result.addInvalid(f, "value is not a number")
			return
		}
		if f.Number != nil {
			if f.Number.Min != nil && n < *f.Number.Min {
				result.addInvalid(f, fmt.Sprintf("value is below minimum %v", *f.Number.Min))
			}
			if f.Number.Max != nil && n > *f.Number.Max {
				result.addInvalid(f, fmt.Sprintf("value is above maximum %v", *f.Number.Max))
			}
		}

	case KindDate:
		raw := strings.TrimSpace(stringify(value))
		if raw == "" {
			if f.Required {
				result.addRequired(f, "date is required")
			}
			return
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			result.addInvalid(f, "date must use YYYY-MM-DD format")
			return
		}
		if f.Date == nil {
			return
		}
		if f.Date.NotBefore != "" {
			if lower, err := time.Parse(dateLayout, f.Date.NotBefore); err == nil && d.Before(lower) {
				result.addInvalid(f, "date is before the earliest allowed date")
				return
			}
		}
		if f.Date.NotAfter != "" {
			if upper, err := time.Parse(dateLayout, f.Date.NotAfter); err == nil && d.After(upper) {
				if f.Date.Grace > 0 && !d.After(upper.Add(f.Date.Grace)) {
					result.Considered = append(result.Considered, f.ID)
					return
				}
				result.addInvalid(f, "date is after the latest allowed date")
			}
		}

	case KindSelect:
		choice := strings.TrimSpace(stringify(value))
		if choice == "" {
			if f.Required {
				result.addRequired(f, "a selection is required")
			}
			return
		}
		if !contains(f.Options, choice) {
			result.addInvalid(f, fmt.Sprintf("%q is not a declared option", choice))
		}

	case KindCheckboxGroup:
		selections := toStrings(value)
		if len(selections) == 0 {
			if f.Required {
				result.addRequired(f, "at least one selection is required")
			}
			return
		}
		for _, sel := range selections {
			if !contains(f.Options, sel) {
				result.addInvalid(f, fmt.Sprintf("%q is not a declared option", sel))
			}
		}

	case KindFile:
		if !f.Required {
			return
		}
		if evidence == nil || !evidence.HasQualifyingEvidence(f.ID) {
			result.addRequired(f, "qualifying evidence is required")
		}
	}
}

func (r *Result) addRequired(f Field, msg string) {
	r.Errors = append(r.Errors, FieldError{FieldID: f.ID, Message: msg, Kind: ErrRequired})
}

func (r *Result) addInvalid(f Field, msg string) {
	r.Errors = append(r.Errors, FieldError{FieldID: f.ID, Message: msg, Kind: ErrInvalid})
}

// evalCondition compares a stored value against a condition. Ordering
// operators require both sides to parse as numbers; otherwise the condition
// is false rather than an error.
func evalCondition(cond Condition, value any) bool {
	switch cond.Operator {
	case OpEq:
		return stringify(value) == cond.Value
	case OpNeq:
		return stringify(value) != cond.Value
	default:
		left, okL := toNumber(value)
		right, okR := toNumber(cond.Value)
		if !okL || !okR {
			return false
		}
		switch cond.Operator {
		case OpGt:
			return left > right
		case OpGte:
			return left >= right
		case OpLt:
			return left < right
		case OpLte:
			return left <= right
		}
		return false
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
