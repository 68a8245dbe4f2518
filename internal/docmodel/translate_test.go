package docmodel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/model"
)

func TestGoToCty(t *testing.T) {
	testCases := []struct {
		name     string
		input    any
		expected cty.Value
	}{
		{name: "int", input: 8, expected: cty.NumberIntVal(8)},
		{name: "float64 from json", input: float64(32), expected: cty.NumberIntVal(32)},
		{name: "json number keeps precision", input: json.Number("9007199254740993"), expected: cty.ParseNumberVal("9007199254740993")},
		{name: "string", input: "ripple", expected: cty.StringVal("ripple")},
		{name: "bool", input: true, expected: cty.True},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GoToCty(tc.input)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equals(got).True(), "got %#v", got)
		})
	}

	t.Run("nil maps to NilVal", func(t *testing.T) {
		got, err := GoToCty(nil)
		require.NoError(t, err)
		assert.Equal(t, cty.NilVal, got)
	})
}

func TestTranslate(t *testing.T) {
	min := int64(1)
	max := int64(64)
	doc := &Document{
		Design: "fir_filter",
		Templates: []TemplateDoc{
			{
				Family: "adder",
				When:   []WhenDoc{{Param: "width", Op: "le", Value: 8}},
				Params: []ParamDoc{{Name: "width", Type: "int", Min: &min, Max: &max, Default: 8}},
				Static: &StaticDoc{Text: "module adder; endmodule"},
			},
			{
				Family:    "adder",
				When:      []WhenDoc{{Param: "width", Op: "gt", Value: 8}},
				Params:    []ParamDoc{{Name: "width", Type: "int"}},
				Generator: &GeneratorDoc{Command: []string{"gen-adder", "${PARAMS_FILE}"}, Timeout: "45s", HDL: "vhdl"},
				Requires:  []string{"carry_unit"},
			},
		},
		Instances: []InstanceDoc{
			{Name: "add0", Family: "adder", Params: map[string]any{"width": 4}, Top: true},
		},
	}

	set, err := Translate(doc, "catalog.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fir_filter", set.Design)
	require.Len(t, set.Descriptors, 2)
	require.Len(t, set.Instances, 1)

	static := set.Descriptors[0]
	assert.Equal(t, "catalog.yaml", static.Origin)
	assert.Equal(t, model.StrategyStatic, static.Strategy())
	assert.Equal(t, model.Verilog, static.HDL())
	require.Len(t, static.Discriminants, 1)
	assert.Equal(t, model.OpLe, static.Discriminants[0].Op)
	require.NotNil(t, static.Param("width"))
	assert.True(t, static.Param("width").Default.Equals(cty.NumberIntVal(8)).True())
	require.NoError(t, static.Validate())

	gen := set.Descriptors[1]
	assert.Equal(t, model.StrategyGenerator, gen.Strategy())
	assert.Equal(t, model.VHDL, gen.HDL())
	assert.Equal(t, 45*time.Second, gen.Generator.Timeout)
	assert.Equal(t, []string{"carry_unit"}, gen.Requires)
	require.NoError(t, gen.Validate())

	inst := set.Instances[0]
	assert.Equal(t, "add0", inst.Name)
	assert.True(t, inst.Top)
	assert.Equal(t, model.OriginRequest, inst.Origin)
	assert.True(t, inst.Params["width"].Equals(cty.NumberIntVal(4)).True())
}

func TestTranslateErrors(t *testing.T) {
	testCases := []struct {
		name      string
		doc       *Document
		expectErr string
	}{
		{
			name: "bad timeout",
			doc: &Document{Templates: []TemplateDoc{{
				Family:    "adder",
				Generator: &GeneratorDoc{Command: []string{"gen"}, Timeout: "soon"},
			}}},
			expectErr: "timeout",
		},
		{
			name: "bad hdl",
			doc: &Document{Templates: []TemplateDoc{{
				Family: "adder",
				Static: &StaticDoc{Text: "x", HDL: "systemc"},
			}}},
			expectErr: "unknown hdl",
		},
		{
			name: "instance without name",
			doc: &Document{Instances: []InstanceDoc{{
				Family: "adder",
			}}},
			expectErr: "has no name",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Translate(tc.doc, "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectErr)
		})
	}
}

func TestSetMerge(t *testing.T) {
	t.Run("design name conflict", func(t *testing.T) {
		a := &Set{Design: "fir_filter"}
		b := &Set{Design: "iir_filter"}
		require.Error(t, a.Merge(b))
	})

	t.Run("empty design yields to named one", func(t *testing.T) {
		a := &Set{}
		b := &Set{Design: "fir_filter", Instances: []*model.Instance{{Name: "add0", Family: "adder"}}}
		require.NoError(t, a.Merge(b))
		assert.Equal(t, "fir_filter", a.Design)
		assert.Len(t, a.Instances, 1)
	})
}
