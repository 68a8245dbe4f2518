package model

import (
	"fmt"
	"time"
)

// StrategyKind names how a matched template turns into concrete output text.
type StrategyKind string

const (
	// StrategyStatic substitutes parameter bindings into a fixed body.
	StrategyStatic StrategyKind = "static"
	// StrategyGenerator runs an external command that produces the body.
	StrategyGenerator StrategyKind = "generator"
)

// HDL is the hardware description language of a template's output.
type HDL string

const (
	Verilog HDL = "verilog"
	VHDL    HDL = "vhdl"
	SMV     HDL = "smv"
)

// Ext returns the file extension artifacts of this language carry.
func (h HDL) Ext() string {
	switch h {
	case VHDL:
		return ".vhd"
	case SMV:
		return ".smv"
	default:
		return ".v"
	}
}

// ParseHDL maps a document-level language name to an HDL. The empty string
// defaults to Verilog.
func ParseHDL(s string) (HDL, error) {
	switch s {
	case "", string(Verilog):
		return Verilog, nil
	case string(VHDL):
		return VHDL, nil
	case string(SMV):
		return SMV, nil
	}
	return "", fmt.Errorf("unknown hdl %q", s)
}

// StaticSpec describes a static-substitution strategy. Exactly one of Text
// and Source is set: Text carries the template body inline, Source names a
// file to read it from, relative to the document that declared it.
type StaticSpec struct {
	Text   string
	Source string
	HDL    HDL
}

// GeneratorSpec describes an external-generator strategy.
type GeneratorSpec struct {
	// Command is the argv to run, after placeholder expansion.
	Command []string

	// Timeout bounds one generator invocation. Zero means the engine-wide
	// default applies.
	Timeout time.Duration

	HDL HDL
}
