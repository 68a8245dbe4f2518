package docmodel

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/rtlforge/internal/model"
)

// Set is the translated content of one or more documents: the template
// descriptors, the instance requests, and the design name if any document
// declared one.
type Set struct {
	Descriptors []*model.Descriptor
	Instances   []*model.Instance
	Design      string
}

// Merge folds another document's content into the set. Descriptor conflicts
// are left to the catalog; here only the design name can clash.
func (s *Set) Merge(other *Set) error {
	if other.Design != "" {
		if s.Design != "" && s.Design != other.Design {
			return fmt.Errorf("conflicting design names %q and %q", s.Design, other.Design)
		}
		s.Design = other.Design
	}
	s.Descriptors = append(s.Descriptors, other.Descriptors...)
	s.Instances = append(s.Instances, other.Instances...)
	return nil
}

// GoToCty converts a decoded document value into its cty equivalent.
// json.Number is parsed at full precision; everything else infers its type.
func GoToCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	if n, ok := v.(json.Number); ok {
		return cty.ParseNumberVal(string(n))
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Translate turns a wire document into typed model values. origin names the
// source file for diagnostics; structural validation of the resulting
// descriptors happens when the catalog merges them.
func Translate(doc *Document, origin string) (*Set, error) {
	set := &Set{Design: doc.Design}

	for i := range doc.Templates {
		d, err := translateTemplate(&doc.Templates[i], origin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
		set.Descriptors = append(set.Descriptors, d)
	}

	for i := range doc.Instances {
		inst, err := translateInstance(&doc.Instances[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
		set.Instances = append(set.Instances, inst)
	}
	return set, nil
}

func translateTemplate(t *TemplateDoc, origin string) (*model.Descriptor, error) {
	d := &model.Descriptor{
		Family:   t.Family,
		Requires: append([]string(nil), t.Requires...),
		Origin:   origin,
	}

	for _, w := range t.When {
		value, err := GoToCty(w.Value)
		if err != nil {
			return nil, fmt.Errorf("template %q: when %q: %w", t.Family, w.Param, err)
		}
		d.Discriminants = append(d.Discriminants, model.Discriminant{
			Param: w.Param,
			Op:    model.Op(w.Op),
			Value: value,
		})
	}

	for _, p := range t.Params {
		decl := &model.ParamDecl{
			Name:   p.Name,
			Kind:   model.ParamKind(p.Type),
			Min:    p.Min,
			Max:    p.Max,
			Values: append([]string(nil), p.Values...),
		}
		if p.Default != nil {
			def, err := GoToCty(p.Default)
			if err != nil {
				return nil, fmt.Errorf("template %q: param %q default: %w", t.Family, p.Name, err)
			}
			decl.Default = def
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
		spec := &model.GeneratorSpec{
			Command: append([]string(nil), t.Generator.Command...),
			HDL:     hdl,
		}
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

func translateInstance(doc *InstanceDoc) (*model.Instance, error) {
	inst := &model.Instance{
		Name:   doc.Name,
		Family: doc.Family,
		Top:    doc.Top,
		Origin: model.OriginRequest,
	}
	if len(doc.Params) > 0 {
		inst.Params = make(map[string]cty.Value, len(doc.Params))
		for name, raw := range doc.Params {
			value, err := GoToCty(raw)
			if err != nil {
				return nil, fmt.Errorf("instance %q: param %q: %w", doc.Name, name, err)
			}
			inst.Params[name] = value
		}
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}
