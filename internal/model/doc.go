// Package model holds the format-agnostic data model of the engine: the
// component instances requested by the upstream compiler, the template
// descriptors they are matched against, the match produced by the selection
// algorithm, and the concretized artifact that finally lands in the output
// directory.
//
// Everything in this package is plain data plus the canonical encodings
// derived from it. Parameter values are cty.Value so that every document
// format (HCL, JSONC, YAML) funnels into one typed representation; the
// canonical textual encodings built on top of them are what make matching,
// deduplication, and artifact naming deterministic across runs and load
// orders.
package model
