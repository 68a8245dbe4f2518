package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// CanonicalValue renders a parameter value in the canonical textual form used
// by descriptor signatures, dedup keys, and artifact hashes. Numbers render
// in plain decimal notation (no exponent), strings are quoted so values
// containing separators cannot collide with the encoding itself.
func CanonicalValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.String:
		return strconv.Quote(v.AsString())
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		// Collections never survive document translation, but render
		// something stable rather than panicking on a stray value.
		return v.GoString()
	}
}

// DisplayValue renders a parameter value the way substitution and
// diagnostics show it: numbers in plain decimal, strings verbatim, booleans
// as true or false. Unlike CanonicalValue it is not collision-free, so it
// never feeds keys or hashes.
func DisplayValue(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case cty.String:
		return v.AsString()
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return v.GoString()
	}
}

// CanonicalParams renders a parameter map as a single stable string: entries
// sorted by name, each as name=value with CanonicalValue rendering. The
// result is independent of map iteration order and identical across runs.
func CanonicalParams(params map[string]cty.Value) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%s", name, CanonicalValue(params[name]))
	}
	return sb.String()
}
