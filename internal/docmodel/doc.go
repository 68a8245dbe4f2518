// Package docmodel is the format-agnostic shape of an input document. Every
// loader (HCL, JSONC, YAML) parses its own syntax into the wire structs here
// and then shares one translation path into the typed model, so constraint
// checking and defaulting behave identically regardless of the format a
// catalog happens to be written in.
package docmodel
