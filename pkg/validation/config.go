package validation

import (
	"fmt"
	"sort"
)

// SchemaMismatchError reports an input record whose field set differs from
// the expected schema.
type SchemaMismatchError struct {
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("input mismatch: missing=%v extra=%v", e.Missing, e.Extra)
}

// CheckFieldSet compares the provided field names against the expected ones
// and returns a *SchemaMismatchError listing sorted missing and extra names,
// or nil when both sets are equal.
func CheckFieldSet(provided, expected []string) error {
	providedSet := make(map[string]struct{}, len(provided))
	for _, name := range provided {
		providedSet[name] = struct{}{}
	}
	expectedSet := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		expectedSet[name] = struct{}{}
	}

	missing := []string{}
	for name := range expectedSet {
		if _, ok := providedSet[name]; !ok {
			missing = append(missing, name)
		}
	}
	extra := []string{}
	for name := range providedSet {
		if _, ok := expectedSet[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &SchemaMismatchError{Missing: missing, Extra: extra}
}

// NullFieldsError reports input fields that are present but carry no value.
type NullFieldsError struct {
	Fields []string
}

func (e *NullFieldsError) Error() string {
	return fmt.Sprintf("input fields without value: %v", e.Fields)
}

// CheckNullFields returns a *NullFieldsError listing the sorted names, or nil
// when names is empty.
func CheckNullFields(names []string) error {
	if len(names) == 0 {
		return nil
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return &NullFieldsError{Fields: sorted}
}

// CheckFloatRange returns a warning when value lies outside [min, max].
func CheckFloatRange(name string, value, min, max float64) string {
	if value < min || value > max {
		return fmt.Sprintf("%s: value %g outside range [%g, %g]", name, value, min, max)
	}
	return ""
}

// CheckNonNegative returns a warning when value is below zero.
func CheckNonNegative(name string, value float64) string {
	if value < 0 {
		return fmt.Sprintf("%s: value %g must not be negative", name, value)
	}
	return ""
}

// CheckIntRange returns a warning when value lies outside [min, max].
func CheckIntRange(name string, value, min, max int) string {
	if value < min || value > max {
		return fmt.Sprintf("%s: value %d outside range [%d, %d]", name, value, min, max)
	}
	return ""
}

// Collect drops empty warnings.
func Collect(warnings ...string) []string {
	var out []string
	for _, w := range warnings {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
