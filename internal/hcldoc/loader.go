// Package hcldoc loads catalog and design documents written in HCL. It
// decodes the block schema with gohcl and translates the result into the
// same typed model the other loaders produce.
//
// Template placeholders share a spelling with HCL's own interpolation
// syntax, so inside HCL documents they are written escaped: $${width}
// decodes to the literal ${width}.
package hcldoc

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/docmodel"
	"github.com/vk/rtlforge/internal/model"
)

// Load parses one HCL document and translates it into a document set.
func Load(ctx context.Context, path string) (*docmodel.Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	set := &docmodel.Set{}
	if root.Design != nil {
		set.Design = root.Design.Name
	}

	for _, t := range root.Templates {
		d, err := translateTemplate(t, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set.Descriptors = append(set.Descriptors, d)
	}
	for _, in := range root.Instances {
		inst, err := translateInstance(in)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		set.Instances = append(set.Instances, inst)
	}

	logger.Debug("HCL loading complete.", "path", path, "templates", len(set.Descriptors), "instances", len(set.Instances))
	return set, nil
}

func translateTemplate(t *templateBlock, origin string) (*model.Descriptor, error) {
	d := &model.Descriptor{
		Family:   t.Family,
		Requires: t.Requires,
		Origin:   origin,
	}

	for _, w := range t.When {
		disc := model.Discriminant{Param: w.Param, Op: model.Op(w.Op)}
		if w.Value != nil {
			value, diags := w.Value.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("template %q: when %q: %w", t.Family, w.Param, diags)
			}
			if !omitted(value) {
				disc.Value = value
			}
		}
		d.Discriminants = append(d.Discriminants, disc)
	}

	for _, p := range t.Params {
		decl := &model.ParamDecl{
			Name:   p.Name,
			Kind:   model.ParamKind(p.Type),
			Min:    p.Min,
			Max:    p.Max,
			Values: p.Values,
		}
		if p.Default != nil && !p.Default.IsNull() {
			decl.Default = *p.Default
		}
		d.Schema = append(d.Schema, decl)
	}

	if t.Static != nil {
		hdl, err := model.ParseHDL(t.Static.HDL)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Family, err)
		}
		d.Static = &model.StaticSpec{Text: t.Static.Text, Source: t.Static.Source, HDL: hdl}
	}
	if t.Generator != nil {
		hdl, err := model.ParseHDL(t.Generator.HDL)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", t.Family, err)
		}
		spec := &model.GeneratorSpec{Command: t.Generator.Command, HDL: hdl}
		if t.Generator.Timeout != "" {
			timeout, err := time.ParseDuration(t.Generator.Timeout)
			if err != nil {
				return nil, fmt.Errorf("template %q: timeout: %w", t.Family, err)
			}
			spec.Timeout = timeout
		}
		d.Generator = spec
	}
	return d, nil
}

func translateInstance(in *instanceBlock) (*model.Instance, error) {
	inst := &model.Instance{
		Name:   in.Name,
		Family: in.Family,
		Top:    in.Top,
		Origin: model.OriginRequest,
	}

	if in.Params != nil && in.Params.Body != nil {
		attrs, diags := in.Params.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("instance %q: params: %w", in.Name, diags)
		}
		if len(attrs) > 0 {
			inst.Params = make(map[string]cty.Value, len(attrs))
			for name, attr := range attrs {
				value, diags := attr.Expr.Value(nil)
				if diags.HasErrors() {
					return nil, fmt.Errorf("instance %q: param %q: %w", in.Name, name, diags)
				}
				inst.Params[name] = value
			}
		}
	}

	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// omitted reports whether an optional attribute decoded to the null
// placeholder the HCL decoder fabricates for absent attributes.
func omitted(v cty.Value) bool {
	return v == cty.NilVal || v.IsNull()
}
