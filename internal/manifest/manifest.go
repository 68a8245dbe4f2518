// Package manifest defines the run report of the engine: per-instance
// outcomes, the failure taxonomy, and the JSON document written next to the
// artifacts at the end of a run.
package manifest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a per-instance failure.
type Kind string

const (
	// KindUnmatched means no template in the catalog covers the instance.
	KindUnmatched Kind = "unmatched_instance"
	// KindSchemaViolation means a template was selected but the instance
	// parameters do not satisfy its schema, or substitution found a
	// placeholder and binding mismatch.
	KindSchemaViolation Kind = "schema_violation"
	// KindGenerationFailure means an external generator did not produce a
	// usable artifact.
	KindGenerationFailure Kind = "generation_failure"
	// KindIOFailure means an artifact could not be written.
	KindIOFailure Kind = "io_failure"
	// KindSkipped marks instances never attempted because an earlier
	// failure stopped the run. Only fail-fast runs produce it.
	KindSkipped Kind = "skipped"
)

// Failure is one diagnosable per-instance error. It carries enough context
// to identify the instance in the input without the caller re-deriving it.
type Failure struct {
	Kind     Kind   `json:"kind"`
	Instance string `json:"instance"`
	Family   string `json:"family"`
	Detail   string `json:"detail"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: instance %q (family %q): %s", f.Kind, f.Instance, f.Family, f.Detail)
}

// Entry records the outcome for one instance of the run, successful or not.
type Entry struct {
	Instance string            `json:"instance"`
	Family   string            `json:"family"`
	Origin   string            `json:"origin"`
	Params   map[string]string `json:"params,omitempty"`

	// Artifact is the output file name the instance resolved to. Empty
	// when the instance failed.
	Artifact string `json:"artifact,omitempty"`

	// Template is the signature of the selected descriptor. Empty for
	// unmatched instances.
	Template string `json:"template,omitempty"`

	Failure *Failure `json:"failure,omitempty"`
}

// Summary aggregates the run for a one-glance verdict.
type Summary struct {
	Instances int `json:"instances"`
	Matched   int `json:"matched"`
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Manifest is the full run report, serialized as manifest.json in the
// output directory.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Design    string    `json:"design"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Summary   Summary   `json:"summary"`
	Entries   []Entry   `json:"entries"`
}

// New starts an empty manifest for a run.
func New(design string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Design:    design,
		StartedAt: time.Now().UTC(),
	}
}

// Add appends an entry and folds it into the summary.
func (m *Manifest) Add(e Entry) {
	m.Entries = append(m.Entries, e)
	m.Summary.Instances++
	switch {
	case e.Failure == nil:
		m.Summary.Matched++
		if e.Artifact != "" {
			m.Summary.Generated++
		}
	case e.Failure.Kind == KindSkipped:
		m.Summary.Skipped++
	default:
		m.Summary.Failed++
	}
}

// Failed reports whether any instance failed. Skipped instances do not count
// as failures of their own; the failure that caused the skip already does.
func (m *Manifest) Failed() bool {
	return m.Summary.Failed > 0
}
