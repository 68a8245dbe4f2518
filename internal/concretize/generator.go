package concretize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/model"
	"github.com/vk/rtlforge/internal/procrun"
)

// stderrTail bounds how much captured generator output travels with a
// failure. Full streams are already capped by procrun; diagnostics only need
// the end, where generators print their verdict.
const stderrTail = 4096

// Generator concretizes matches by running the template's external command.
//
// The contract with the command: every ${name} in its argv is expanded from
// the parameter bindings and the builtins PARAMS_FILE, OUTPUT_FILE, and
// MODULE_NAME; the same builtins are exported into its environment. The
// command runs in a private scratch directory, reads its parameters from
// PARAMS_FILE (a JSON object), and must exit zero leaving its output at
// OUTPUT_FILE. Anything else fails the match.
type Generator struct {
	// DefaultTimeout bounds invocations for templates that do not declare
	// their own timeout. Zero means no limit.
	DefaultTimeout time.Duration
}

// NewGenerator creates the external-generator handler.
func NewGenerator(defaultTimeout time.Duration) *Generator {
	return &Generator{DefaultTimeout: defaultTimeout}
}

// Kind implements Handler.
func (g *Generator) Kind() model.StrategyKind {
	return model.StrategyGenerator
}

// Concretize implements Handler.
func (g *Generator) Concretize(ctx context.Context, m *model.Match) (*model.Artifact, error) {
	d := m.Descriptor
	logger := ctxlog.FromContext(ctx).With("family", d.Family, "artifact", m.ArtifactName)

	workDir, err := os.MkdirTemp("", "rtlforge-gen-")
	if err != nil {
		return nil, &BuildError{Family: d.Family, Detail: "creating scratch directory", Err: err}
	}
	defer os.RemoveAll(workDir)

	paramsFile := filepath.Join(workDir, "params.json")
	outputFile := filepath.Join(workDir, m.ArtifactName+d.HDL().Ext())

	params, err := paramsJSON(m.Bindings)
	if err != nil {
		return nil, &BuildError{Family: d.Family, Detail: "encoding parameters", Err: err}
	}
	if err := os.WriteFile(paramsFile, params, 0o644); err != nil {
		return nil, &BuildError{Family: d.Family, Detail: "writing parameter file", Err: err}
	}

	vars := renderBindings(m.Bindings)
	vars["PARAMS_FILE"] = paramsFile
	vars["OUTPUT_FILE"] = outputFile
	vars["MODULE_NAME"] = m.ArtifactName

	argv := make([]string, len(d.Generator.Command))
	for i, word := range d.Generator.Command {
		expanded, _, missing := Expand(word, vars)
		if len(missing) > 0 {
			return nil, &SubstitutionError{Family: d.Family, Missing: missing}
		}
		argv[i] = expanded
	}

	timeout := d.Generator.Timeout
	if timeout == 0 {
		timeout = g.DefaultTimeout
	}

	result, err := procrun.Run(ctx, procrun.Call{
		Argv:    argv,
		Dir:     workDir,
		Timeout: timeout,
		Env: []string{
			"PARAMS_FILE=" + paramsFile,
			"OUTPUT_FILE=" + outputFile,
			"MODULE_NAME=" + m.ArtifactName,
		},
	})
	if err != nil {
		// A canceled run kills the process; that is not the generator's
		// failure, so let the cancellation surface as itself.
		if ctx.Err() != nil && !result.TimedOut {
			return nil, ctx.Err()
		}
		detail := fmt.Sprintf("generator failed after %s", result.Duration.Round(time.Millisecond))
		if result.TimedOut {
			detail = fmt.Sprintf("generator timed out after %s", timeout)
		}
		return nil, &BuildError{Family: d.Family, Detail: detail, Stderr: tail(result.Stderr), Err: err}
	}

	content, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, &BuildError{
			Family: d.Family,
			Detail: "generator exited zero but left no output file",
			Stderr: tail(result.Stderr),
			Err:    err,
		}
	}
	if len(content) == 0 {
		return nil, &BuildError{
			Family: d.Family,
			Detail: "generator produced an empty output file",
			Stderr: tail(result.Stderr),
		}
	}

	logger.Debug("Generator complete.", "bytes", len(content), "duration", result.Duration)
	return &model.Artifact{
		Key:     m.Key(),
		Family:  d.Family,
		Name:    m.ArtifactName,
		HDL:     d.HDL(),
		Content: content,
	}, nil
}

// paramsJSON encodes the bindings as a JSON object, preserving the typed
// values the schema produced.
func paramsJSON(bindings map[string]cty.Value) ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(bindings))
	for name, value := range bindings {
		raw, err := ctyjson.Marshal(value, value.Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		obj[name] = raw
	}
	return json.MarshalIndent(obj, "", "  ")
}

func tail(s string) string {
	if len(s) <= stderrTail {
		return s
	}
	return s[len(s)-stderrTail:]
}
