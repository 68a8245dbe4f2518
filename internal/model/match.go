package model

import (
	"github.com/zclconf/go-cty/cty"
)

// Match pairs an instance with the descriptor selected for it and the final
// parameter bindings: instance values converted through the schema, defaults
// filled in.
type Match struct {
	Instance   *Instance
	Descriptor *Descriptor
	Bindings   map[string]cty.Value

	// ArtifactName is the unit name the concretized output will carry.
	// Derived from family and bindings for ordinary instances, the design
	// name for the top-level one.
	ArtifactName string
}

// BindingsKey renders the bindings canonically. Matches with equal
// descriptors and equal binding keys concretize to identical output.
func (m *Match) BindingsKey() string {
	return CanonicalParams(m.Bindings)
}

// Key is the dedup identity of the match: descriptor signature, canonical
// bindings, and the artifact name. Two instances with the same key share one
// concretization and one output file.
func (m *Match) Key() string {
	return m.Descriptor.Signature() + "|" + m.BindingsKey() + "|" + m.ArtifactName
}
