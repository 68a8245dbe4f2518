package concretize

import (
	"fmt"
	"strings"
)

// SubstitutionError reports a parameter and placeholder mismatch between the
// selected template and the instance bindings.
type SubstitutionError struct {
	Family  string
	Missing []string
	Unused  []string
}

func (e *SubstitutionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("placeholders without a binding: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unused) > 0 {
		parts = append(parts, fmt.Sprintf("bindings never substituted: %s", strings.Join(e.Unused, ", ")))
	}
	return fmt.Sprintf("template %q: %s", e.Family, strings.Join(parts, "; "))
}

// BuildError reports that a strategy could not produce usable output for the
// match. Detail carries the trailing diagnostics of the failed step, Stderr
// the captured generator output when there is one.
type BuildError struct {
	Family string
	Detail string
	Stderr string
	Err    error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("template %q: %s", e.Family, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }
