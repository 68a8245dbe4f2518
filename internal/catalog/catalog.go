// Package catalog holds the merged template database of a run: every
// descriptor loaded from every input document, indexed by family and checked
// for conflicts.
package catalog

import (
	"fmt"
	"sort"

	"github.com/vk/rtlforge/internal/model"
)

// ConflictError reports two descriptors that claim the same slice of the
// request space but disagree about what to do with it.
type ConflictError struct {
	Signature string
	First     string
	Second    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting templates for %s: declared in %s and %s", e.Signature, e.First, e.Second)
}

// Catalog indexes validated descriptors by family.
type Catalog struct {
	byFamily map[string][]*model.Descriptor
	bySig    map[string]*model.Descriptor
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		byFamily: make(map[string][]*model.Descriptor),
		bySig:    make(map[string]*model.Descriptor),
	}
}

// Add validates a descriptor and merges it into the catalog. A descriptor
// whose signature is already present must be byte-equivalent to the existing
// one; identical re-declarations are tolerated so overlapping documents can
// be loaded together, diverging ones are a ConflictError.
func (c *Catalog) Add(d *model.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	sig := d.Signature()
	if existing, ok := c.bySig[sig]; ok {
		if existing.Fingerprint() != d.Fingerprint() {
			return &ConflictError{Signature: sig, First: existing.Origin, Second: d.Origin}
		}
		return nil
	}
	c.bySig[sig] = d
	c.byFamily[d.Family] = append(c.byFamily[d.Family], d)
	return nil
}

// AddAll merges a batch of descriptors, stopping at the first error.
func (c *Catalog) AddAll(ds []*model.Descriptor) error {
	for _, d := range ds {
		if err := c.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// Candidates returns the descriptors of a family in signature order. The
// fixed order keeps every downstream decision independent of document load
// order.
func (c *Catalog) Candidates(family string) []*model.Descriptor {
	ds := c.byFamily[family]
	out := make([]*model.Descriptor, len(ds))
	copy(out, ds)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Signature() < out[j].Signature()
	})
	return out
}

// Families lists every family the catalog knows, sorted.
func (c *Catalog) Families() []string {
	out := make([]string, 0, len(c.byFamily))
	for f := range c.byFamily {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of distinct descriptors.
func (c *Catalog) Len() int {
	return len(c.bySig)
}
