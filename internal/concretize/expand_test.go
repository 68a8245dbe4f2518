package concretize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/model"
)

func TestExpand(t *testing.T) {
	testCases := []struct {
		name            string
		text            string
		vars            map[string]string
		expected        string
		expectedMissing []string
	}{
		{
			name:     "single placeholder",
			text:     "parameter WIDTH = ${width};",
			vars:     map[string]string{"width": "8"},
			expected: "parameter WIDTH = 8;",
		},
		{
			name:     "repeated placeholder",
			text:     "${name}_a ${name}_b",
			vars:     map[string]string{"name": "adder"},
			expected: "adder_a adder_b",
		},
		{
			name:     "bare dollar passes through",
			text:     `echo "$HOME" ${width}`,
			vars:     map[string]string{"width": "8"},
			expected: `echo "$HOME" 8`,
		},
		{
			name:            "unknown placeholder reported once",
			text:            "${depth} ${depth} ${width}",
			vars:            map[string]string{"width": "8"},
			expected:        "${depth} ${depth} 8",
			expectedMissing: []string{"depth"},
		},
		{
			name:     "malformed reference left alone",
			text:     "${1bad} ${} $width",
			vars:     map[string]string{"width": "8"},
			expected: "${1bad} ${} $width",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expanded, _, missing := Expand(tc.text, tc.vars)
			assert.Equal(t, tc.expected, expanded)
			assert.Equal(t, tc.expectedMissing, missing)
		})
	}

	t.Run("used set tracks substituted names", func(t *testing.T) {
		_, used, _ := Expand("${a} ${b}", map[string]string{"a": "1", "b": "2", "c": "3"})
		assert.True(t, used["a"])
		assert.True(t, used["b"])
		assert.False(t, used["c"])
	})
}

func TestRenderBindings(t *testing.T) {
	vars := renderBindings(map[string]cty.Value{
		"width":  cty.NumberIntVal(32),
		"arch":   cty.StringVal("ripple"),
		"signed": cty.True,
	})
	assert.Equal(t, map[string]string{
		"width":  "32",
		"arch":   "ripple",
		"signed": "true",
	}, vars)
	assert.Equal(t, "", model.DisplayValue(cty.NilVal))
}
