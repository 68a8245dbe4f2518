package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ParamKind identifies the declared type of a template parameter.
type ParamKind string

const (
	ParamInt    ParamKind = "int"
	ParamString ParamKind = "string"
	ParamEnum   ParamKind = "enum"
)

// ctyType returns the cty type a parameter of this kind is stored as.
func (k ParamKind) ctyType() cty.Type {
	if k == ParamInt {
		return cty.Number
	}
	return cty.String
}

// ParamDecl declares one parameter a template family accepts: its type and
// the constraints an instance value must satisfy to bind against the
// template.
type ParamDecl struct {
	Name string
	Kind ParamKind

	// Min and Max bound int parameters inclusively when non-nil.
	Min *int64
	Max *int64

	// Values enumerates the admissible strings of an enum parameter.
	Values []string

	// Default fills the parameter when the requesting instance omits it.
	// NilVal means the parameter is required.
	Default cty.Value
}

// Required reports whether an instance must supply this parameter itself.
func (p *ParamDecl) Required() bool {
	return p.Default == cty.NilVal
}

// Convert coerces an instance-supplied value to the declared type and checks
// it against the declared constraints. A failure here means the instance
// names the right family but violates its schema.
func (p *ParamDecl) Convert(v cty.Value) (cty.Value, error) {
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, fmt.Errorf("parameter %q: value is null", p.Name)
	}
	converted, err := convert.Convert(v, p.Kind.ctyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: %w", p.Name, err)
	}

	switch p.Kind {
	case ParamInt:
		bf := converted.AsBigFloat()
		if !bf.IsInt() {
			return cty.NilVal, fmt.Errorf("parameter %q: %s is not an integer", p.Name, CanonicalValue(converted))
		}
		n, _ := bf.Int64()
		if p.Min != nil && n < *p.Min {
			return cty.NilVal, fmt.Errorf("parameter %q: %d is below minimum %d", p.Name, n, *p.Min)
		}
		if p.Max != nil && n > *p.Max {
			return cty.NilVal, fmt.Errorf("parameter %q: %d is above maximum %d", p.Name, n, *p.Max)
		}
	case ParamEnum:
		s := converted.AsString()
		if !contains(p.Values, s) {
			return cty.NilVal, fmt.Errorf("parameter %q: %q is not one of the allowed values", p.Name, s)
		}
	}
	return converted, nil
}

// validate checks the declaration itself, independent of any instance.
func (p *ParamDecl) validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter declared without a name")
	}
	switch p.Kind {
	case ParamInt:
		if len(p.Values) > 0 {
			return fmt.Errorf("parameter %q: int parameters cannot enumerate values", p.Name)
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return fmt.Errorf("parameter %q: min %d exceeds max %d", p.Name, *p.Min, *p.Max)
		}
	case ParamString:
		if p.Min != nil || p.Max != nil || len(p.Values) > 0 {
			return fmt.Errorf("parameter %q: string parameters take no constraints", p.Name)
		}
	case ParamEnum:
		if len(p.Values) == 0 {
			return fmt.Errorf("parameter %q: enum parameters need at least one value", p.Name)
		}
		if p.Min != nil || p.Max != nil {
			return fmt.Errorf("parameter %q: enum parameters take no numeric bounds", p.Name)
		}
	default:
		return fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Kind)
	}
	if p.Default != cty.NilVal {
		if _, err := p.Convert(p.Default); err != nil {
			return fmt.Errorf("default value rejected by own schema: %w", err)
		}
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
