package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/rtlforge/internal/catalog"
	"github.com/vk/rtlforge/internal/concretize"
	"github.com/vk/rtlforge/internal/ctxlog"
	"github.com/vk/rtlforge/internal/dedup"
	"github.com/vk/rtlforge/internal/emit"
	"github.com/vk/rtlforge/internal/manifest"
	"github.com/vk/rtlforge/internal/matcher"
	"github.com/vk/rtlforge/internal/model"
)

// Options configure a run.
type Options struct {
	// Workers bounds concurrent concretizations. Zero or negative means one
	// worker per CPU.
	Workers int

	// FailFast stops dispatching new work after the first failure; work
	// never attempted is reported as skipped.
	FailFast bool

	// Design names the run. The top instance's artifact takes this name,
	// and the flow files are generated around it.
	Design string

	// PDK and Library parameterize the generated flow files.
	PDK     string
	Library string

	// Flow controls whether synthesize.tcl and config.tcl are written.
	Flow bool

	// GenTimeout bounds generator invocations that declare no timeout of
	// their own.
	GenTimeout time.Duration
}

// Engine resolves instance requests against a catalog and emits artifacts.
type Engine struct {
	catalog  *catalog.Catalog
	registry *concretize.Registry
	writer   *emit.Writer
	cache    *dedup.Cache
	opts     Options
}

// New assembles an engine. Every strategy appearing in the catalog must have
// a registered handler; a gap is a wiring bug, not a run-time condition.
func New(cat *catalog.Catalog, reg *concretize.Registry, writer *emit.Writer, opts Options) *Engine {
	for _, family := range cat.Families() {
		for _, d := range cat.Candidates(family) {
			if !reg.Handles(d.Strategy()) {
				panic(fmt.Sprintf("engine: no handler for strategy %q of family %q", d.Strategy(), family))
			}
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{
		catalog:  cat,
		registry: reg,
		writer:   writer,
		cache:    dedup.New(),
		opts:     opts,
	}
}

// resolution tracks one instance through the run.
type resolution struct {
	inst     *model.Instance
	match    *model.Match
	artifact *model.Artifact
	fail     *manifest.Failure
}

// Run resolves every instance and writes the outputs. The returned manifest
// records every instance's outcome, dependency-synthesized ones included. A
// non-nil error means the run itself broke (output directory or manifest
// unwritable), not that instances failed; callers check Manifest.Failed for
// that.
func (e *Engine) Run(ctx context.Context, instances []*model.Instance) (*manifest.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	resolutions, matchFailed, err := e.matchAll(ctx, instances)
	if err != nil {
		return nil, err
	}

	if e.opts.FailFast && matchFailed {
		for _, r := range resolutions {
			if r.fail == nil {
				r.fail = skipped(r.inst)
			}
		}
	} else {
		e.concretizeAll(ctx, resolutions)
	}
	flowErr := e.emitAll(ctx, resolutions)

	man := manifest.New(e.opts.Design)
	man.StartedAt = start.UTC()
	man.Duration = time.Since(start).Round(time.Millisecond).String()
	for _, r := range resolutions {
		man.Add(e.entry(r))
	}

	if err := e.writer.WriteManifest(ctx, man); err != nil {
		return man, err
	}

	logger.Info("Run complete.",
		"design", e.opts.Design,
		"instances", man.Summary.Instances,
		"generated", man.Summary.Generated,
		"failed", man.Summary.Failed,
		"skipped", man.Summary.Skipped,
		"duration", man.Duration,
	)
	return man, flowErr
}

// matchAll selects a descriptor for every instance, synthesizing dependency
// instances for the requires lists of matched templates. The walk is
// breadth-first over families so a dependency chain terminates even when
// templates require each other. matchFailed reports whether any instance
// failed to match, for fail-fast handling by the caller.
func (e *Engine) matchAll(ctx context.Context, instances []*model.Instance) (resolutions []*resolution, matchFailed bool, err error) {
	logger := ctxlog.FromContext(ctx)

	tops := 0
	for _, inst := range instances {
		if inst.Top {
			tops++
		}
	}
	if tops > 1 {
		return nil, false, fmt.Errorf("%d instances marked top, at most one allowed", tops)
	}

	resolutions = make([]*resolution, 0, len(instances))
	for _, inst := range instances {
		resolutions = append(resolutions, &resolution{inst: inst})
	}

	stopped := false
	required := make(map[string]bool)

	for i := 0; i < len(resolutions); i++ {
		r := resolutions[i]
		if stopped {
			r.fail = skipped(r.inst)
			continue
		}

		m, merr := matcher.Match(e.catalog, r.inst)
		if merr != nil {
			r.fail = classifyMatch(r.inst, merr)
			matchFailed = true
			logger.Debug("Instance failed to match.", "instance", r.inst.Name, "family", r.inst.Family, "error", merr)
			if e.opts.FailFast {
				stopped = true
			}
			continue
		}

		if r.inst.Top && e.opts.Design != "" {
			m.ArtifactName = e.opts.Design
		}
		r.match = m
		logger.Debug("Instance matched.", "instance", r.inst.Name, "template", m.Descriptor.Signature(), "artifact", m.ArtifactName)

		for _, family := range m.Descriptor.Requires {
			if required[family] {
				continue
			}
			required[family] = true
			resolutions = append(resolutions, &resolution{inst: &model.Instance{
				Name:   family,
				Family: family,
				Origin: model.OriginDependency,
			}})
		}
	}
	return resolutions, matchFailed, nil
}

// concretizeAll fans matched resolutions out over the worker pool. Every
// instance resolves through the dedup cache, so equivalent matches share one
// strategy execution regardless of which worker gets there first.
func (e *Engine) concretizeAll(ctx context.Context, resolutions []*resolution) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	var failed atomic.Bool
	for _, r := range resolutions {
		if r.match == nil {
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil || (e.opts.FailFast && failed.Load()) {
				r.fail = skipped(r.inst)
				return nil
			}

			artifact, _, err := e.cache.Resolve(gctx, r.match.Key(), func(buildCtx context.Context) (*model.Artifact, error) {
				return e.registry.Concretize(buildCtx, r.match)
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					r.fail = skipped(r.inst)
					return nil
				}
				r.fail = classifyConcretize(r.inst, err)
				if e.opts.FailFast {
					failed.Store(true)
					return r.fail
				}
				return nil
			}
			r.artifact = artifact
			return nil
		})
	}

	// The first failure in fail-fast mode surfaces here; it is already
	// recorded on its resolution.
	_ = g.Wait()
}

// emitAll writes every distinct artifact once, in resolution order, then the
// flow files. Write failures localize to the instances sharing the artifact.
func (e *Engine) emitAll(ctx context.Context, resolutions []*resolution) error {
	written := make(map[string]error)
	for _, r := range resolutions {
		if r.artifact == nil {
			continue
		}
		werr, done := written[r.artifact.Key]
		if !done {
			werr = e.writer.WriteArtifact(ctx, r.artifact)
			written[r.artifact.Key] = werr
		}
		if werr != nil {
			r.fail = &manifest.Failure{
				Kind:     manifest.KindIOFailure,
				Instance: r.inst.Name,
				Family:   r.inst.Family,
				Detail:   werr.Error(),
			}
			r.artifact = nil
		}
	}

	if e.opts.Flow && e.opts.Design != "" {
		return e.writer.WriteFlow(ctx, emit.FlowConfig{
			Design:  e.opts.Design,
			PDK:     e.opts.PDK,
			Library: e.opts.Library,
		})
	}
	return nil
}

func (e *Engine) entry(r *resolution) manifest.Entry {
	entry := manifest.Entry{
		Instance: r.inst.Name,
		Family:   r.inst.Family,
		Origin:   string(r.inst.Origin),
		Failure:  r.fail,
	}
	if len(r.inst.Params) > 0 {
		entry.Params = make(map[string]string, len(r.inst.Params))
		for name, value := range r.inst.Params {
			entry.Params[name] = model.DisplayValue(value)
		}
	}
	if r.match != nil {
		entry.Template = r.match.Descriptor.Signature()
	}
	if r.fail == nil && r.artifact != nil {
		entry.Artifact = r.artifact.FileName()
	}
	return entry
}

func skipped(inst *model.Instance) *manifest.Failure {
	return &manifest.Failure{
		Kind:     manifest.KindSkipped,
		Instance: inst.Name,
		Family:   inst.Family,
		Detail:   "not attempted, run stopped after an earlier failure",
	}
}

func classifyMatch(inst *model.Instance, err error) *manifest.Failure {
	kind := manifest.KindUnmatched
	var schemaErr *matcher.SchemaError
	if errors.As(err, &schemaErr) {
		kind = manifest.KindSchemaViolation
	}
	return &manifest.Failure{
		Kind:     kind,
		Instance: inst.Name,
		Family:   inst.Family,
		Detail:   err.Error(),
	}
}

func classifyConcretize(inst *model.Instance, err error) *manifest.Failure {
	kind := manifest.KindGenerationFailure
	var subErr *concretize.SubstitutionError
	if errors.As(err, &subErr) {
		kind = manifest.KindSchemaViolation
	}
	detail := err.Error()
	var buildErr *concretize.BuildError
	if errors.As(err, &buildErr) && buildErr.Stderr != "" {
		detail += "\n" + buildErr.Stderr
	}
	return &manifest.Failure{
		Kind:     kind,
		Instance: inst.Name,
		Family:   inst.Family,
		Detail:   detail,
	}
}
