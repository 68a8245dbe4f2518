package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/rtlforge/internal/concretize"
	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/emit"
	"github.com/vk/rtlforge/internal/engine"
	"github.com/vk/rtlforge/internal/manifest"
)

// Run resolves every loaded instance and writes artifacts, the manifest, and
// optional flow files under the configured output directory. It returns an
// error when the run itself breaks or when any instance fails to resolve.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	design := a.config.DesignName
	if design == "" {
		design = a.set.Design
	}

	writer, err := emit.NewWriter(a.config.OutDir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	eng := engine.New(a.catalog, concretize.Default(a.config.GenTimeout), writer, engine.Options{
		Workers:    a.config.Workers,
		FailFast:   a.config.FailFast,
		Design:     design,
		PDK:        a.config.PDK,
		Library:    a.config.Library,
		Flow:       a.config.Flow,
		GenTimeout: a.config.GenTimeout,
	})

	a.logger.Info("🚀 Starting resolution.",
		"design", design,
		"instances", len(a.set.Instances),
		"out", writer.Root())
	man, runErr := eng.Run(ctx, a.set.Instances)
	if man != nil {
		a.report(man)
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	a.logger.Info("🏁 Resolution finished.")

	if man.Failed() {
		return fmt.Errorf("%d of %d instances failed to resolve", man.Summary.Failed, man.Summary.Instances)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// report prints the failure list to the application's output writer, one
// line per failed instance, naming the instance and its requested
// parameters.
func (a *App) report(man *manifest.Manifest) {
	for _, e := range man.Entries {
		if e.Failure == nil || e.Failure.Kind == manifest.KindSkipped {
			continue
		}
		line := fmt.Sprintf("FAIL %s: instance %q (family %q", e.Failure.Kind, e.Instance, e.Family)
		if params := displayParams(e.Params); params != "" {
			line += ", params " + params
		}
		line += "): " + e.Failure.Detail
		fmt.Fprintln(a.outW, line)
	}
	if man.Summary.Skipped > 0 {
		fmt.Fprintf(a.outW, "%d instances skipped after the first failure\n", man.Summary.Skipped)
	}
}

func displayParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for name, value := range params {
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
