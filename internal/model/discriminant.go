package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Op is a discriminant comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLe  Op = "le"
	OpGt  Op = "gt"
	OpGe  Op = "ge"
	OpAny Op = "any"
)

// OpClass orders operators by how tightly they constrain a parameter.
// Higher class wins when ranking candidate templates for an instance.
type OpClass int

const (
	ClassAlways OpClass = iota
	ClassRange
	ClassExact
)

// Class reports the constraint strength of the operator.
func (o Op) Class() OpClass {
	switch o {
	case OpEq:
		return ClassExact
	case OpNe, OpLt, OpLe, OpGt, OpGe:
		return ClassRange
	default:
		return ClassAlways
	}
}

// valid reports whether o is one of the defined operators.
func (o Op) valid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAny:
		return true
	}
	return false
}

// numeric reports whether the operator only makes sense on numbers.
func (o Op) numeric() bool {
	switch o {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Discriminant is one condition a template imposes on a parameter value.
// A template matches an instance only when every discriminant holds.
type Discriminant struct {
	Param string
	Op    Op

	// Value is the right-hand side of the comparison. OpAny ignores it.
	Value cty.Value
}

// String renders the discriminant in its canonical form, used to build
// descriptor signatures. The form is stable across runs and load orders.
func (d Discriminant) String() string {
	if d.Op == OpAny {
		return fmt.Sprintf("%s any", d.Param)
	}
	return fmt.Sprintf("%s %s %s", d.Param, d.Op, CanonicalValue(d.Value))
}

// Holds evaluates the discriminant against a concrete parameter value.
func (d Discriminant) Holds(v cty.Value) bool {
	switch d.Op {
	case OpAny:
		return true
	case OpEq:
		return v.Equals(d.Value).True()
	case OpNe:
		return v.Equals(d.Value).False()
	}
	// Ordered comparisons only apply to numbers; descriptor validation
	// guarantees the right-hand side is numeric.
	if v.Type() != cty.Number {
		return false
	}
	switch d.Op {
	case OpLt:
		return v.LessThan(d.Value).True()
	case OpLe:
		return v.LessThanOrEqualTo(d.Value).True()
	case OpGt:
		return v.GreaterThan(d.Value).True()
	case OpGe:
		return v.GreaterThanOrEqualTo(d.Value).True()
	}
	return false
}

// validate checks structural well-formedness of the discriminant.
func (d Discriminant) validate() error {
	if d.Param == "" {
		return fmt.Errorf("discriminant without a parameter name")
	}
	if !d.Op.valid() {
		return fmt.Errorf("discriminant on %q: unknown operator %q", d.Param, d.Op)
	}
	if d.Op == OpAny {
		return nil
	}
	if d.Value == cty.NilVal || d.Value.IsNull() {
		return fmt.Errorf("discriminant on %q: operator %s needs a value", d.Param, d.Op)
	}
	if d.Op.numeric() && d.Value.Type() != cty.Number {
		return fmt.Errorf("discriminant on %q: operator %s needs a numeric value", d.Param, d.Op)
	}
	return nil
}
