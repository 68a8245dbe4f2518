package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/rtlforge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("rtlforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
RTLForge - A template-driven hardware module resolution engine.

Usage:
  rtlforge [options] DOC_PATH [DOC_PATH...]

Arguments:
  DOC_PATH
    Path to a design document (.hcl, .json, .jsonc, .yaml, .yml) or a
    directory containing design documents.

Options:
`)
		flagSet.PrintDefaults()
	}

	designFlag := flagSet.String("design", "", "Path to a design document or directory.")
	dFlag := flagSet.String("d", "", "Path to a design document or directory (shorthand).")
	outFlag := flagSet.String("out", "rtl-out", "Output directory for artifacts, manifest, and flow files.")
	designNameFlag := flagSet.String("design-name", "", "Top-level design name. Overrides the documents' design block.")
	pdkFlag := flagSet.String("pdk", "sky130A", "Process design kit for the generated flow files.")
	libraryFlag := flagSet.String("library", "sky130_fd_sc_hd", "Standard cell library for the generated flow files.")
	flowFlag := flagSet.Bool("flow", false, "Write synthesize.tcl and config.tcl next to the artifacts.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent concretizations. 0 selects the CPU count.")
	genTimeoutFlag := flagSet.Duration("gen-timeout", 2*time.Minute, "Default timeout for generator processes without their own.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Stop dispatching new work after the first failure.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *designFlag != "" {
		paths = append(paths, *designFlag)
	} else if *dFlag != "" {
		paths = append(paths, *dFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Document paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No document paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *genTimeoutFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid gen-timeout: must be positive"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		DocPaths:   paths,
		OutDir:     *outFlag,
		DesignName: *designNameFlag,
		PDK:        *pdkFlag,
		Library:    *libraryFlag,
		Flow:       *flowFlag,
		Workers:    *workersFlag,
		GenTimeout: *genTimeoutFlag,
		FailFast:   *failFastFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
