package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleEmail     = "email"
	RuleRange     = "range"
)

// ErrInternalOnly is returned when an internal-only shape is asked to serialize itself.
var ErrInternalOnly = errors.New("schema: internal user shape must not be serialized")

// Violation is one broken rule on one field.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every violation found while validating or projecting a value.
// It is never returned with an empty Violations list.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the violating field names in report order, without duplicates.
func (e *ValidationError) Fields() []string {
	seen := make(map[string]struct{}, len(e.Violations))
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := seen[v.Field]; ok {
			continue
		}
		seen[v.Field] = struct{}{}
		fields = append(fields, v.Field)
	}
	return fields
}

func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// violationBuilder accumulates violations across independent field checks.
// Only the first violation per field is kept.
type violationBuilder struct {
	byField map[string]Violation
}

func (b *violationBuilder) add(field, rule, message string) {
	if b.byField == nil {
		b.byField = make(map[string]Violation)
	}
	if _, ok := b.byField[field]; ok {
		return
	}
	b.byField[field] = Violation{Field: field, Rule: rule, Message: message}
}

func (b *violationBuilder) has(field string) bool {
	_, ok := b.byField[field]
	return ok
}

// err returns nil when nothing was recorded. Violations follow the given field order;
// fields missing from order are appended alphabetically.
func (b *violationBuilder) err(order ...string) error {
	if len(b.byField) == 0 {
		return nil
	}
	out := make([]Violation, 0, len(b.byField))
	used := make(map[string]struct{}, len(order))
	for _, field := range order {
		if v, ok := b.byField[field]; ok {
			out = append(out, v)
			used[field] = struct{}{}
		}
	}
	var rest []string
	for field := range b.byField {
		if _, ok := used[field]; !ok {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	for _, field := range rest {
		out = append(out, b.byField[field])
	}
	return &ValidationError{Violations: out}
}
