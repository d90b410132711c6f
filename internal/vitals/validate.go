package vitals

import (
	"fmt"
	"strings"
)

// FieldIssue describes one field that failed validation.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Range   Range  `json:"range"`
	Missing bool   `json:"missing,omitempty"`
}

// ValidationError lists every field that blocks submission, in field order.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	return e.Issues[0].Message
}

// Fields returns the offending field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		out = append(out, is.Field)
	}
	return out
}

// ValidateAll checks that every field is present, numeric and within its
// declared range, and returns the parsed values when they are.
func ValidateAll(raw map[string]string) (Inputs, error) {
	return validate(raw, fields)
}

// Valid reports whether raw would be accepted for submission.
func Valid(raw map[string]string) bool {
	_, err := ValidateAll(raw)
	return err == nil
}

// ValidateStep checks only the fields shown on the given form step.
func ValidateStep(step int, raw map[string]string) error {
	var subset []Field
	for _, f := range fields {
		if f.Step == step {
			subset = append(subset, f)
		}
	}
	if len(subset) == 0 {
		return fmt.Errorf("unknown form step %d", step)
	}
	_, err := validate(raw, subset)
	return err
}

func validate(raw map[string]string, set []Field) (Inputs, error) {
	normalized := make(map[string]string, len(raw))
	for k, v := range raw {
		normalized[normalizeName(k)] = v
	}

	var in Inputs
	var issues []FieldIssue
	for _, f := range set {
		s, present := normalized[f.Name]
		v, ok := parseValue(s)
		if !ok || !f.Range.Contains(v) {
			issues = append(issues, FieldIssue{
				Field:   f.Name,
				Message: issueMessage(f),
				Range:   f.Range,
				Missing: !present || strings.TrimSpace(s) == "",
			})
			continue
		}
		in = in.Set(f.Name, v)
	}
	if len(issues) > 0 {
		return Inputs{}, &ValidationError{Issues: issues}
	}
	return in, nil
}

func issueMessage(f Field) string {
	return fmt.Sprintf("Please enter a valid %s between %s and %s",
		f.Name, FormatNumber(f.Range.Min), FormatNumber(f.Range.Max))
}
