package concretize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/model"
)

// Static concretizes matches by substituting bindings into the template
// body. Substitution is strict in both directions: a placeholder without a
// binding and a binding no placeholder consumes are both errors.
type Static struct{}

// NewStatic creates the static-substitution handler.
func NewStatic() *Static {
	return &Static{}
}

// Kind implements Handler.
func (s *Static) Kind() model.StrategyKind {
	return model.StrategyStatic
}

// Concretize implements Handler.
func (s *Static) Concretize(ctx context.Context, m *model.Match) (*model.Artifact, error) {
	d := m.Descriptor
	logger := ctxlog.FromContext(ctx).With("family", d.Family, "artifact", m.ArtifactName)

	text, err := s.body(d)
	if err != nil {
		return nil, &BuildError{Family: d.Family, Detail: "template body unavailable", Err: err}
	}

	vars := renderBindings(m.Bindings)
	vars["MODULE_NAME"] = m.ArtifactName

	expanded, used, missing := Expand(text, vars)
	if len(missing) > 0 || !allBindingsUsed(m.Bindings, used) {
		return nil, &SubstitutionError{
			Family:  d.Family,
			Missing: missing,
			Unused:  unusedBindings(m.Bindings, used),
		}
	}

	logger.Debug("Static substitution complete.", "bytes", len(expanded))
	return &model.Artifact{
		Key:     m.Key(),
		Family:  d.Family,
		Name:    m.ArtifactName,
		HDL:     d.HDL(),
		Content: []byte(expanded),
	}, nil
}

// body resolves the template text, reading the source file for descriptors
// that keep their body on disk. Source paths are relative to the document
// that declared the template.
func (s *Static) body(d *model.Descriptor) (string, error) {
	if d.Static.Text != "" {
		return d.Static.Text, nil
	}
	path := d.Static.Source
	if !filepath.IsAbs(path) && d.Origin != "" {
		path = filepath.Join(filepath.Dir(d.Origin), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template source: %w", err)
	}
	return string(data), nil
}

func allBindingsUsed(bindings map[string]cty.Value, used map[string]bool) bool {
	for name := range bindings {
		if !used[name] {
			return false
		}
	}
	return true
}

func unusedBindings(bindings map[string]cty.Value, used map[string]bool) []string {
	var unused []string
	for name := range bindings {
		if !used[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	return unused
}
