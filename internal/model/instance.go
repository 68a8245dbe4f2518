package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// InstanceOrigin records how an instance entered the run.
type InstanceOrigin string

const (
	// OriginRequest marks instances read from an input document.
	OriginRequest InstanceOrigin = "request"
	// OriginDependency marks instances synthesized from a matched
	// template's requires list.
	OriginDependency InstanceOrigin = "dependency"
)

// Instance is one component-instance request: a family to resolve plus the
// parameter values the component is instantiated with.
type Instance struct {
	// Name is the instance label from the design. Dependency-synthesized
	// instances reuse their family name.
	Name   string
	Family string
	Params map[string]cty.Value

	// Top marks the instance whose artifact takes the design name instead
	// of a derived one.
	Top bool

	Origin InstanceOrigin
}

// Validate checks the request for structural errors.
func (in *Instance) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("instance of family %q has no name", in.Family)
	}
	if !familyNameRe.MatchString(in.Family) {
		return fmt.Errorf("instance %q: invalid family name %q", in.Name, in.Family)
	}
	return nil
}

// ParamsKey renders the instance parameters canonically, for logs and
// manifest entries.
func (in *Instance) ParamsKey() string {
	return CanonicalParams(in.Params)
}
