package concretize

import (
	"regexp"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/model"
)

// placeholderRe matches ${name} references. A bare $name is left untouched
// so generator command lines can carry shell variables through unexpanded.
var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand replaces every ${name} placeholder in text with its value. It
// returns the expansion, the set of names it substituted, and the names it
// had no value for. The caller decides whether leftovers are an error.
func Expand(text string, vars map[string]string) (expanded string, used map[string]bool, missing []string) {
	used = make(map[string]bool)
	seenMissing := make(map[string]bool)

	expanded = placeholderRe.ReplaceAllStringFunc(text, func(ref string) string {
		name := ref[2 : len(ref)-1]
		value, ok := vars[name]
		if !ok {
			if !seenMissing[name] {
				seenMissing[name] = true
				missing = append(missing, name)
			}
			return ref
		}
		used[name] = true
		return value
	})
	sort.Strings(missing)
	return expanded, used, missing
}

// renderBindings produces the substitution variables for a binding map.
func renderBindings(bindings map[string]cty.Value) map[string]string {
	vars := make(map[string]string, len(bindings))
	for name, value := range bindings {
		vars[name] = model.DisplayValue(value)
	}
	return vars
}
