// Package matcher selects the template that serves a component-instance
// request. Selection is two-phased: eligibility filters the family's
// candidates down to those whose discriminants hold for the instance
// parameters, then the most constrained candidate wins. Binding converts the
// instance parameters through the winner's schema and fills declared
// defaults, producing the final parameter set concretization will see.
package matcher

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/rtlforge/internal/catalog"
	"github.com/vk/rtlforge/internal/model"
)

// NoMatchError means no template in the catalog covers the instance.
type NoMatchError struct {
	Family     string
	Params     string
	Considered int
}

func (e *NoMatchError) Error() string {
	if e.Considered == 0 {
		return fmt.Sprintf("no templates declared for family %q", e.Family)
	}
	return fmt.Sprintf("no template of family %q covers params [%s] (%d considered)", e.Family, e.Params, e.Considered)
}

// SchemaError means a template was selected but the instance parameters do
// not satisfy its schema.
type SchemaError struct {
	Family    string
	Signature string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("instance of family %q violates schema of %s: %v", e.Family, e.Signature, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Match resolves one instance against the catalog.
func Match(cat *catalog.Catalog, inst *model.Instance) (*model.Match, error) {
	candidates := cat.Candidates(inst.Family)
	if len(candidates) == 0 {
		return nil, &NoMatchError{Family: inst.Family}
	}

	var eligible []*model.Descriptor
	for _, d := range candidates {
		if satisfied(d, inst) {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return nil, &NoMatchError{
			Family:     inst.Family,
			Params:     inst.ParamsKey(),
			Considered: len(candidates),
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return CompareCandidates(eligible[i], eligible[j]) < 0
	})
	winner := eligible[0]

	bindings, err := bind(winner, inst)
	if err != nil {
		return nil, &SchemaError{Family: inst.Family, Signature: winner.Signature(), Err: err}
	}

	return &model.Match{
		Instance:     inst,
		Descriptor:   winner,
		Bindings:     bindings,
		ArtifactName: model.DerivedName(winner.Family, model.CanonicalParams(bindings)),
	}, nil
}

// satisfied reports whether every discriminant of the descriptor holds for
// the instance. A discriminant whose parameter cannot be resolved to a value
// of the declared type disqualifies the candidate rather than failing the
// instance; another candidate of the family may still cover it.
func satisfied(d *model.Descriptor, inst *model.Instance) bool {
	for _, disc := range d.Discriminants {
		if disc.Op == model.OpAny {
			continue
		}
		value, ok := resolve(d, inst, disc.Param)
		if !ok {
			return false
		}
		if !disc.Holds(value) {
			return false
		}
	}
	return true
}

// resolve produces the typed value of one parameter for discriminant
// evaluation: the instance value converted to the declared type, or the
// declared default when the instance omits it. Only type conversion applies
// here; range and enum constraints are checked at binding time, after a
// winner is selected.
func resolve(d *model.Descriptor, inst *model.Instance, param string) (cty.Value, bool) {
	decl := d.Param(param)
	if decl == nil {
		return cty.NilVal, false
	}
	if raw, ok := inst.Params[param]; ok {
		converted, err := typeOnly(decl, raw)
		if err != nil {
			return cty.NilVal, false
		}
		return converted, true
	}
	if decl.Default != cty.NilVal {
		return decl.Default, true
	}
	return cty.NilVal, false
}

// typeOnly converts a raw value to the declared parameter type without
// enforcing the declared constraints.
func typeOnly(decl *model.ParamDecl, raw cty.Value) (cty.Value, error) {
	relaxed := model.ParamDecl{Name: decl.Name, Kind: decl.Kind}
	if decl.Kind == model.ParamEnum {
		relaxed.Kind = model.ParamString
	}
	return relaxed.Convert(raw)
}

// CompareCandidates orders two eligible descriptors by constraint strength:
// more exact discriminants first, then more range discriminants, then more
// always-true ones. Equal counts fall back to the canonical signature, so
// the winner never depends on document load order.
func CompareCandidates(a, b *model.Descriptor) int {
	ca, cb := classCounts(a), classCounts(b)
	for class := model.ClassExact; class >= model.ClassAlways; class-- {
		if ca[class] != cb[class] {
			if ca[class] > cb[class] {
				return -1
			}
			return 1
		}
	}
	sa, sb := a.Signature(), b.Signature()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func classCounts(d *model.Descriptor) map[model.OpClass]int {
	counts := make(map[model.OpClass]int, 3)
	for _, disc := range d.Discriminants {
		counts[disc.Op.Class()]++
	}
	return counts
}

// bind converts every instance parameter through the winner's schema,
// enforces declared constraints, and fills defaults. Parameters the schema
// does not declare are rejected.
func bind(d *model.Descriptor, inst *model.Instance) (map[string]cty.Value, error) {
	for name := range inst.Params {
		if d.Param(name) == nil {
			return nil, fmt.Errorf("parameter %q is not declared by the template", name)
		}
	}

	bindings := make(map[string]cty.Value, len(d.Schema))
	for _, decl := range d.Schema {
		raw, ok := inst.Params[decl.Name]
		if !ok {
			if decl.Default == cty.NilVal {
				return nil, fmt.Errorf("required parameter %q is missing", decl.Name)
			}
			bindings[decl.Name] = decl.Default
			continue
		}
		converted, err := decl.Convert(raw)
		if err != nil {
			return nil, err
		}
		bindings[decl.Name] = converted
	}
	return bindings, nil
}
