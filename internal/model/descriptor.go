package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var familyNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// reservedParams are substitution names the engine provides itself; a schema
// declaring one would shadow the builtin.
var reservedParams = map[string]bool{
	"PARAMS_FILE": true,
	"OUTPUT_FILE": true,
	"MODULE_NAME": true,
}

// Descriptor is one template entry of the catalog: a family name, the
// discriminants that decide which instances it serves, the parameter schema
// those instances must satisfy, and exactly one concretization strategy.
type Descriptor struct {
	Family        string
	Discriminants []Discriminant
	Schema        []*ParamDecl

	// Requires names template families that must be concretized alongside
	// this one, regardless of whether any instance requests them directly.
	Requires []string

	Static    *StaticSpec
	Generator *GeneratorSpec

	// Origin records the document the descriptor came from, for diagnostics
	// and conflict reports.
	Origin string
}

// Strategy reports which concretization strategy the descriptor carries.
func (d *Descriptor) Strategy() StrategyKind {
	if d.Generator != nil {
		return StrategyGenerator
	}
	return StrategyStatic
}

// HDL reports the output language of the descriptor's strategy.
func (d *Descriptor) HDL() HDL {
	if d.Generator != nil {
		return d.Generator.HDL
	}
	if d.Static != nil {
		return d.Static.HDL
	}
	return Verilog
}

// Param looks up a schema declaration by name.
func (d *Descriptor) Param(name string) *ParamDecl {
	for _, p := range d.Schema {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Signature is the descriptor's identity for conflict detection and dedup:
// the family name plus the sorted canonical forms of its discriminants. Two
// descriptors with the same signature claim the same slice of the request
// space.
func (d *Descriptor) Signature() string {
	if len(d.Discriminants) == 0 {
		return d.Family
	}
	parts := make([]string, len(d.Discriminants))
	for i, disc := range d.Discriminants {
		parts[i] = disc.String()
	}
	sort.Strings(parts)
	return d.Family + "[" + strings.Join(parts, ";") + "]"
}

// Fingerprint extends the signature with everything else the descriptor
// says. Two descriptors with equal signatures but different fingerprints are
// a catalog conflict; equal fingerprints are a harmless duplicate.
func (d *Descriptor) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(d.Signature())

	sb.WriteString("|schema:")
	decls := make([]string, len(d.Schema))
	for i, p := range d.Schema {
		s := fmt.Sprintf("%s:%s", p.Name, p.Kind)
		if p.Min != nil {
			s += fmt.Sprintf(":min=%d", *p.Min)
		}
		if p.Max != nil {
			s += fmt.Sprintf(":max=%d", *p.Max)
		}
		if len(p.Values) > 0 {
			s += ":values=" + strings.Join(p.Values, "|")
		}
		if p.Default != cty.NilVal {
			s += ":default=" + CanonicalValue(p.Default)
		}
		decls[i] = s
	}
	sort.Strings(decls)
	sb.WriteString(strings.Join(decls, ";"))

	if len(d.Requires) > 0 {
		req := append([]string(nil), d.Requires...)
		sort.Strings(req)
		sb.WriteString("|requires:" + strings.Join(req, ";"))
	}

	switch d.Strategy() {
	case StrategyStatic:
		sb.WriteString("|static:" + string(d.Static.HDL) + ":")
		if d.Static.Source != "" {
			sb.WriteString("source=" + d.Static.Source)
		} else {
			sb.WriteString("text=" + d.Static.Text)
		}
	case StrategyGenerator:
		sb.WriteString("|generator:" + string(d.Generator.HDL) + ":")
		sb.WriteString(strings.Join(d.Generator.Command, "\x00"))
		if d.Generator.Timeout > 0 {
			fmt.Fprintf(&sb, ":timeout=%s", d.Generator.Timeout)
		}
	}
	return sb.String()
}

// Validate checks the descriptor for structural errors that make it unusable
// regardless of what instances arrive later. Catalog loading rejects invalid
// descriptors up front so matching never has to re-check them.
func (d *Descriptor) Validate() error {
	if !familyNameRe.MatchString(d.Family) {
		return fmt.Errorf("invalid family name %q", d.Family)
	}
	if (d.Static == nil) == (d.Generator == nil) {
		return fmt.Errorf("family %q: exactly one of static and generator must be set", d.Family)
	}
	if d.Static != nil {
		if (d.Static.Text == "") == (d.Static.Source == "") {
			return fmt.Errorf("family %q: static strategy needs exactly one of text and source", d.Family)
		}
	}
	if d.Generator != nil && len(d.Generator.Command) == 0 {
		return fmt.Errorf("family %q: generator strategy needs a command", d.Family)
	}

	seen := make(map[string]bool, len(d.Schema))
	for _, p := range d.Schema {
		if err := p.validate(); err != nil {
			return fmt.Errorf("family %q: %w", d.Family, err)
		}
		if reservedParams[p.Name] {
			return fmt.Errorf("family %q: parameter name %q is reserved", d.Family, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("family %q: parameter %q declared twice", d.Family, p.Name)
		}
		seen[p.Name] = true
	}

	for _, disc := range d.Discriminants {
		if err := disc.validate(); err != nil {
			return fmt.Errorf("family %q: %w", d.Family, err)
		}
		if !seen[disc.Param] {
			return fmt.Errorf("family %q: discriminant on undeclared parameter %q", d.Family, disc.Param)
		}
	}

	for _, req := range d.Requires {
		if !familyNameRe.MatchString(req) {
			return fmt.Errorf("family %q: invalid requires entry %q", d.Family, req)
		}
	}
	return nil
}
