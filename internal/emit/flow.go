package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/rtlforge/internal/ctxlog"
)

// FlowConfig parameterizes the downstream synthesis flow files.
type FlowConfig struct {
	Design  string
	PDK     string
	Library string
}

// WriteFlow generates synthesize.tcl and config.tcl in the output directory
// so the artifact set can go straight into synthesis. Only Verilog artifacts
// are read by the script; other languages ship alongside for their own
// flows. Files are listed sorted so reruns produce identical scripts.
func (w *Writer) WriteFlow(ctx context.Context, cfg FlowConfig) error {
	var verilog []string
	for _, name := range w.ArtifactFiles() {
		if strings.HasSuffix(name, ".v") {
			verilog = append(verilog, name)
		}
	}
	sort.Strings(verilog)

	synth := synthesisScript(cfg, verilog)
	if err := os.WriteFile(filepath.Join(w.root, "synthesize.tcl"), []byte(synth), 0o644); err != nil {
		return fmt.Errorf("writing synthesize.tcl: %w", err)
	}

	conf := flowConfig(cfg)
	if err := os.WriteFile(filepath.Join(w.root, "config.tcl"), []byte(conf), 0o644); err != nil {
		return fmt.Errorf("writing config.tcl: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("Flow files written.", "verilog_files", len(verilog), "design", cfg.Design)
	return nil
}

func synthesisScript(cfg FlowConfig, verilog []string) string {
	liberty := fmt.Sprintf("$::env(PDK_ROOT)/%s/libs.ref/%s/liberty/%s__tt_025C_1v80.lib",
		cfg.PDK, cfg.Library, cfg.Library)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Synthesis script for %s\n\n", cfg.Design)

	sb.WriteString("# Read design files\n")
	for _, file := range verilog {
		fmt.Fprintf(&sb, "read_verilog %s\n", file)
	}

	fmt.Fprintf(&sb, `
# Hierarchy check
hierarchy -check -top %s

# High-level synthesis
proc; opt; fsm; opt; memory; opt

# Technology mapping
techmap; opt

# Map to standard cells
dfflibmap -liberty %s
abc -liberty %s

# Write synthesized netlist
write_verilog -noattr %s_synthesized.v

# Write statistics
stat -liberty %s
`, cfg.Design, liberty, liberty, cfg.Design, liberty)

	return sb.String()
}

func flowConfig(cfg FlowConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Flow configuration for %s\n\n", cfg.Design)
	fmt.Fprintf(&sb, "set ::env(DESIGN_NAME) %q\n", cfg.Design)
	fmt.Fprintf(&sb, "set ::env(VERILOG_FILES) %q\n", cfg.Design+"_synthesized.v")
	fmt.Fprintf(&sb, "set ::env(PDK) %q\n", cfg.PDK)
	fmt.Fprintf(&sb, "set ::env(STD_CELL_LIBRARY) %q\n", cfg.Library)
	sb.WriteString(`
# Design configuration
set ::env(CLOCK_PERIOD) "10.0"
set ::env(CLOCK_PORT) "clock"
set ::env(CLOCK_NET) "clock"

# Synthesis configuration
set ::env(SYNTH_STRATEGY) "DELAY 0"
set ::env(SYNTH_MAX_FANOUT) "5"

# Place and Route configuration
set ::env(PLACE_SITE) "unithd"
set ::env(PLACE_DENSITY) "0.6"
set ::env(ROUTING_STRATEGY) "2"
`)
	return sb.String()
}
