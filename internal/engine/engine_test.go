package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/catalog"
	"github.com/vk/rtlforge/internal/concretize"
	"github.com/vk/rtlforge/internal/emit"
	"github.com/vk/rtlforge/internal/manifest"
	"github.com/vk/rtlforge/internal/model"
)

func int64p(n int64) *int64 { return &n }

func testEngine(t *testing.T, opts Options, ds ...*model.Descriptor) (*Engine, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "out")

	cat := catalog.New()
	require.NoError(t, cat.AddAll(ds))

	writer, err := emit.NewWriter(root)
	require.NoError(t, err)

	if opts.GenTimeout == 0 {
		opts.GenTimeout = time.Minute
	}
	return New(cat, concretize.Default(opts.GenTimeout), writer, opts), root
}

func narrowAdder() *model.Descriptor {
	return &model.Descriptor{
		Family: "adder",
		Schema: []*model.ParamDecl{
			{Name: "width", Kind: model.ParamInt, Min: int64p(1), Max: int64p(64)},
		},
		Discriminants: []model.Discriminant{
			{Param: "width", Op: model.OpLe, Value: cty.NumberIntVal(8)},
		},
		Static: &model.StaticSpec{
			Text: "module ${MODULE_NAME} #(parameter WIDTH = ${width}); endmodule\n",
			HDL:  model.Verilog,
		},
		Origin: "adders.hcl",
	}
}

func wideAdder() *model.Descriptor {
	return &model.Descriptor{
		Family: "adder",
		Schema: []*model.ParamDecl{
			{Name: "width", Kind: model.ParamInt, Min: int64p(1), Max: int64p(64)},
		},
		Discriminants: []model.Discriminant{
			{Param: "width", Op: model.OpGt, Value: cty.NumberIntVal(8)},
		},
		Generator: &model.GeneratorSpec{
			Command: []string{"sh", "-c", `printf 'module %s; // W=${width}\n' "$MODULE_NAME" > "$OUTPUT_FILE"`},
			HDL:     model.Verilog,
		},
		Origin: "adders.hcl",
	}
}

func widthInstance(name string, width int) *model.Instance {
	return &model.Instance{
		Name:   name,
		Family: "adder",
		Params: map[string]cty.Value{"width": cty.NumberIntVal(int64(width))},
		Origin: model.OriginRequest,
	}
}

func TestRunEndToEnd(t *testing.T) {
	eng, root := testEngine(t, Options{Design: "fir_filter", Workers: 4}, narrowAdder(), wideAdder())

	instances := []*model.Instance{
		widthInstance("add0", 4),
		widthInstance("add1", 32),
		widthInstance("add2", 4),
		{
			Name:   "mul0",
			Family: "multiplier_special",
			Params: map[string]cty.Value{"width": cty.NumberIntVal(32)},
			Origin: model.OriginRequest,
		},
	}

	man, err := eng.Run(context.Background(), instances)
	require.NoError(t, err)

	assert.Equal(t, 4, man.Summary.Instances)
	assert.Equal(t, 3, man.Summary.Matched)
	assert.Equal(t, 3, man.Summary.Generated)
	assert.Equal(t, 1, man.Summary.Failed)
	assert.True(t, man.Failed())
	assert.NotEmpty(t, man.RunID)
	assert.Equal(t, "fir_filter", man.Design)

	byName := make(map[string]manifest.Entry)
	for _, e := range man.Entries {
		byName[e.Instance] = e
	}

	// Equal requests share one artifact.
	assert.Equal(t, byName["add0"].Artifact, byName["add2"].Artifact)
	assert.NotEqual(t, byName["add0"].Artifact, byName["add1"].Artifact)

	require.NotNil(t, byName["mul0"].Failure)
	assert.Equal(t, manifest.KindUnmatched, byName["mul0"].Failure.Kind)
	assert.Equal(t, "32", byName["mul0"].Params["width"])

	// The static body and the generator output both landed on disk.
	static, err := os.ReadFile(filepath.Join(root, byName["add0"].Artifact))
	require.NoError(t, err)
	assert.Contains(t, string(static), "parameter WIDTH = 4")

	generated, err := os.ReadFile(filepath.Join(root, byName["add1"].Artifact))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "W=32")

	_, err = os.Stat(filepath.Join(root, "manifest.json"))
	require.NoError(t, err)
}

func TestRunTopInstanceTakesDesignName(t *testing.T) {
	eng, root := testEngine(t, Options{Design: "fir_filter", Flow: true, PDK: "sky130A", Library: "sky130_fd_sc_hd"},
		narrowAdder(), wideAdder())

	top := widthInstance("add_top", 4)
	top.Top = true

	man, err := eng.Run(context.Background(), []*model.Instance{top, widthInstance("add1", 4)})
	require.NoError(t, err)
	assert.False(t, man.Failed())

	_, err = os.Stat(filepath.Join(root, "fir_filter.v"))
	require.NoError(t, err, "top artifact must carry the design name")

	// The sibling with equal params keeps its derived name; the two are
	// distinct output units.
	files, err := os.ReadDir(root)
	require.NoError(t, err)
	var verilog []string
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".v" {
			verilog = append(verilog, f.Name())
		}
	}
	assert.Len(t, verilog, 2)

	synth, err := os.ReadFile(filepath.Join(root, "synthesize.tcl"))
	require.NoError(t, err)
	assert.Contains(t, string(synth), "hierarchy -check -top fir_filter")
	assert.Contains(t, string(synth), "read_verilog fir_filter.v")

	_, err = os.Stat(filepath.Join(root, "config.tcl"))
	require.NoError(t, err)
}

func TestRunRequiresExpansion(t *testing.T) {
	carry := &model.Descriptor{
		Family: "carry_unit",
		Static: &model.StaticSpec{Text: "module carry_unit; endmodule\n", HDL: model.Verilog},
		Origin: "support.hcl",
	}
	adder := narrowAdder()
	adder.Requires = []string{"carry_unit"}

	eng, root := testEngine(t, Options{Design: "fir_filter"}, adder, carry)

	man, err := eng.Run(context.Background(), []*model.Instance{widthInstance("add0", 4)})
	require.NoError(t, err)
	assert.False(t, man.Failed())
	require.Len(t, man.Entries, 2)

	dep := man.Entries[1]
	assert.Equal(t, "carry_unit", dep.Instance)
	assert.Equal(t, string(model.OriginDependency), dep.Origin)
	assert.NotEmpty(t, dep.Artifact)

	_, err = os.Stat(filepath.Join(root, dep.Artifact))
	require.NoError(t, err)
}

func TestRunRequiresChainTerminates(t *testing.T) {
	a := &model.Descriptor{
		Family:   "ping",
		Requires: []string{"pong"},
		Static:   &model.StaticSpec{Text: "module ping; endmodule\n", HDL: model.Verilog},
	}
	b := &model.Descriptor{
		Family:   "pong",
		Requires: []string{"ping"},
		Static:   &model.StaticSpec{Text: "module pong; endmodule\n", HDL: model.Verilog},
	}
	eng, _ := testEngine(t, Options{Design: "loop"}, a, b)

	man, err := eng.Run(context.Background(), []*model.Instance{
		{Name: "p0", Family: "ping", Origin: model.OriginRequest},
	})
	require.NoError(t, err)
	assert.False(t, man.Failed())
	// p0, its pong dependency, and pong's ping dependency; the chain stops
	// once every family has been required.
	assert.Len(t, man.Entries, 3)
}

func TestRunFailFastSkipsRemaining(t *testing.T) {
	eng, _ := testEngine(t, Options{Design: "fir_filter", FailFast: true, Workers: 1},
		narrowAdder(), wideAdder())

	instances := []*model.Instance{
		{Name: "mul0", Family: "multiplier_special", Origin: model.OriginRequest},
		widthInstance("add0", 4),
	}

	man, err := eng.Run(context.Background(), instances)
	require.NoError(t, err)

	assert.Equal(t, 1, man.Summary.Failed)
	assert.Equal(t, 1, man.Summary.Skipped)

	assert.Equal(t, manifest.KindUnmatched, man.Entries[0].Failure.Kind)
	require.NotNil(t, man.Entries[1].Failure)
	assert.Equal(t, manifest.KindSkipped, man.Entries[1].Failure.Kind)
}

func TestRunFailFastStopsAfterGeneratorFailure(t *testing.T) {
	failing := wideAdder()
	failing.Generator.Command = []string{"sh", "-c", "echo no such width >&2; exit 3"}

	eng, _ := testEngine(t, Options{Design: "fir_filter", FailFast: true, Workers: 1},
		narrowAdder(), failing)

	man, err := eng.Run(context.Background(), []*model.Instance{
		widthInstance("add1", 32),
		widthInstance("add0", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, man.Summary.Failed)
	assert.Equal(t, 1, man.Summary.Skipped)
	assert.Equal(t, manifest.KindGenerationFailure, man.Entries[0].Failure.Kind)
	assert.Contains(t, man.Entries[0].Failure.Detail, "no such width")
	assert.Equal(t, manifest.KindSkipped, man.Entries[1].Failure.Kind)
}

func TestRunWithoutFailFastAttemptsEverything(t *testing.T) {
	eng, _ := testEngine(t, Options{Design: "fir_filter"}, narrowAdder(), wideAdder())

	man, err := eng.Run(context.Background(), []*model.Instance{
		{Name: "mul0", Family: "multiplier_special", Origin: model.OriginRequest},
		widthInstance("add0", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, man.Summary.Failed)
	assert.Zero(t, man.Summary.Skipped)
	assert.Equal(t, 1, man.Summary.Generated)
}

func TestRunSchemaViolationEntry(t *testing.T) {
	eng, _ := testEngine(t, Options{Design: "fir_filter"}, narrowAdder(), wideAdder())

	man, err := eng.Run(context.Background(), []*model.Instance{widthInstance("add0", 0)})
	require.NoError(t, err)

	require.Len(t, man.Entries, 1)
	require.NotNil(t, man.Entries[0].Failure)
	// Width 0 passes no discriminant (le 8 holds) but violates the bound.
	assert.Equal(t, manifest.KindSchemaViolation, man.Entries[0].Failure.Kind)
}

func TestRunRejectsMultipleTops(t *testing.T) {
	eng, _ := testEngine(t, Options{Design: "fir_filter"}, narrowAdder())

	a := widthInstance("add0", 4)
	a.Top = true
	b := widthInstance("add1", 4)
	b.Top = true

	_, err := eng.Run(context.Background(), []*model.Instance{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top")
}

func TestNewPanicsOnUnhandledStrategy(t *testing.T) {
	cat := catalog.New()
	require.NoError(t, cat.Add(wideAdder()))

	writer, err := emit.NewWriter(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	staticOnly := concretize.NewRegistry()
	staticOnly.Register(concretize.NewStatic())

	require.Panics(t, func() {
		New(cat, staticOnly, writer, Options{})
	})
}

func TestRunConcurrentDedup(t *testing.T) {
	eng, root := testEngine(t, Options{Design: "fir_filter", Workers: 8}, narrowAdder(), wideAdder())

	var instances []*model.Instance
	for i := 0; i < 24; i++ {
		instances = append(instances, widthInstance(fmt.Sprintf("add%02d", i), 4))
	}

	man, err := eng.Run(context.Background(), instances)
	require.NoError(t, err)
	assert.False(t, man.Failed())
	assert.Equal(t, 24, man.Summary.Generated)

	files, err := os.ReadDir(root)
	require.NoError(t, err)
	var verilog int
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".v" {
			verilog++
		}
	}
	assert.Equal(t, 1, verilog, "24 equal requests collapse to one artifact")
}
