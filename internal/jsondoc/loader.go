// Package jsondoc loads catalog and design documents written in JSON or
// JSONC (JSON extended with comments and trailing commas). Upstream tools
// that emit request documents mechanically write plain JSON; hand-maintained
// template catalogs tend to want comments, so both are accepted on the same
// path.
package jsondoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/docmodel"
)

// Parse strips JSONC comments and trailing commas from data, then unmarshals
// the result into the wire document. Numbers decode as json.Number so large
// parameter values survive at full precision.
func Parse(data []byte, origin string) (*docmodel.Set, error) {
	stripped := jsonc.ToJSON(data)

	var doc docmodel.Document
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	return docmodel.Translate(&doc, origin)
}

// Load reads one JSON or JSONC document from disk and translates it.
func Load(ctx context.Context, path string) (*docmodel.Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("JSON loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	set, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("JSON loading complete.", "path", path, "templates", len(set.Descriptors), "instances", len(set.Instances))
	return set, nil
}
