package concretize

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/model"
)

func generatorMatch(command []string, bindings map[string]cty.Value) *model.Match {
	d := &model.Descriptor{
		Family:    "adder",
		Generator: &model.GeneratorSpec{Command: command, HDL: model.Verilog},
	}
	return &model.Match{
		Instance:     &model.Instance{Name: "add1", Family: "adder", Origin: model.OriginRequest},
		Descriptor:   d,
		Bindings:     bindings,
		ArtifactName: "adder_9f8e7d6c5b4a",
	}
}

func TestGeneratorConcretize(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", `printf 'module %s; endmodule\n' "$MODULE_NAME" > "$OUTPUT_FILE"`},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	artifact, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, "adder_9f8e7d6c5b4a", artifact.Name)
	assert.Equal(t, "module adder_9f8e7d6c5b4a; endmodule\n", string(artifact.Content))
	assert.Equal(t, m.Key(), artifact.Key)
}

func TestGeneratorArgvExpansion(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", `printf 'parameter W = ${width};' > ${OUTPUT_FILE}`},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	artifact, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "parameter W = 32;", string(artifact.Content))
}

func TestGeneratorParamsFile(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", `cp "$PARAMS_FILE" "$OUTPUT_FILE"`},
		map[string]cty.Value{
			"width": cty.NumberIntVal(32),
			"arch":  cty.StringVal("lookahead"),
		},
	)

	artifact, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.NoError(t, err)

	var params map[string]any
	require.NoError(t, json.Unmarshal(artifact.Content, &params))
	assert.Equal(t, float64(32), params["width"])
	assert.Equal(t, "lookahead", params["arch"])
}

func TestGeneratorNonZeroExit(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", `echo 'unsupported width' >&2; exit 3`},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	_, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Stderr, "unsupported width")
	assert.Contains(t, err.Error(), "exited with code 3")
}

func TestGeneratorNoOutputFile(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", "true"},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	_, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Detail, "no output file")
}

func TestGeneratorEmptyOutputFile(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", `: > "$OUTPUT_FILE"`},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	_, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Detail, "empty output file")
}

func TestGeneratorTimeout(t *testing.T) {
	m := generatorMatch(
		[]string{"sh", "-c", "sleep 10"},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)
	m.Descriptor.Generator.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Detail, "timed out")
}

func TestGeneratorUnknownPlaceholderInCommand(t *testing.T) {
	m := generatorMatch(
		[]string{"gen-adder", "${depth}"},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)

	_, err := NewGenerator(time.Minute).Concretize(context.Background(), m)
	require.Error(t, err)

	var subErr *SubstitutionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, []string{"depth"}, subErr.Missing)
}

func TestRegistryDispatch(t *testing.T) {
	r := Default(time.Minute)

	static := staticMatch("module ${MODULE_NAME}; endmodule", nil)
	artifact, err := r.Concretize(context.Background(), static)
	require.NoError(t, err)
	assert.Contains(t, string(artifact.Content), "module adder_0a1b2c3d4e5f")

	gen := generatorMatch(
		[]string{"sh", "-c", `printf ok > "$OUTPUT_FILE"`},
		map[string]cty.Value{"width": cty.NumberIntVal(32)},
	)
	artifact, err = r.Concretize(context.Background(), gen)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(artifact.Content))
}
