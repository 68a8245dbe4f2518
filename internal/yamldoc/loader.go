// Package yamldoc loads catalog and design documents written in YAML.
package yamldoc

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/docmodel"
)

// Parse unmarshals one YAML document into the wire shape and translates it.
func Parse(data []byte, origin string) (*docmodel.Set, error) {
	var doc docmodel.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return docmodel.Translate(&doc, origin)
}

// Load reads one YAML document from disk and translates it.
func Load(ctx context.Context, path string) (*docmodel.Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	set, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("YAML loading complete.", "path", path, "templates", len(set.Descriptors), "instances", len(set.Instances))
	return set, nil
}
