package hcldoc

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes all recognized top-level blocks from one HCL file.
type fileRoot struct {
	Design    *designBlock     `hcl:"design,block"`
	Templates []*templateBlock `hcl:"template,block"`
	Instances []*instanceBlock `hcl:"instance,block"`
}

type designBlock struct {
	Name string `hcl:"name"`
}

type templateBlock struct {
	Family    string          `hcl:"family,label"`
	When      []*whenBlock    `hcl:"when,block"`
	Params    []*paramBlock   `hcl:"param,block"`
	Requires  []string        `hcl:"requires,optional"`
	Static    *staticBlock    `hcl:"static,block"`
	Generator *generatorBlock `hcl:"generator,block"`
}

type whenBlock struct {
	Param string         `hcl:"param"`
	Op    string         `hcl:"op"`
	Value hcl.Expression `hcl:"value,optional"`
}

type paramBlock struct {
	Name    string     `hcl:"name,label"`
	Type    string     `hcl:"type"`
	Min     *int64     `hcl:"min,optional"`
	Max     *int64     `hcl:"max,optional"`
	Values  []string   `hcl:"values,optional"`
	Default *cty.Value `hcl:"default,optional"`
}

type staticBlock struct {
	Text   string `hcl:"text,optional"`
	Source string `hcl:"source,optional"`
	HDL    string `hcl:"hdl,optional"`
}

type generatorBlock struct {
	Command []string `hcl:"command"`
	Timeout string   `hcl:"timeout,optional"`
	HDL     string   `hcl:"hdl,optional"`
}

type instanceBlock struct {
	Family string       `hcl:"family,label"`
	Name   string       `hcl:"instance_name,label"`
	Params *paramsBlock `hcl:"params,block"`
	Top    bool         `hcl:"top,optional"`
}

// paramsBlock keeps its body raw so parameter values of any type can be
// evaluated without forcing them through a homogeneous map conversion.
type paramsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
