// Package launcher implements Gwen's launcher/scheduler (§4.I, §5):
// the sequential fold and the bounded worker-pool parallel-by-feature
// mode that turn a FeatureUnit stream into a ResultsSummary, plus
// SIGINT/timeout cancellation.
//
// Grounded on the teacher's internal/kernel/kernel.go (actor
// registration and per-actor inbox dispatch, generalised here to "one
// worker per pool slot, one task per unit") and
// internal/util/future/future.go (the Future type this package
// imports directly from its adapted home, internal/future, to join
// unit results — see DESIGN.md).
package launcher

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/future"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/gwenlog"
	"github.com/gwen-interpreter/gwen/internal/normalise"
	"github.com/gwen-interpreter/gwen/internal/report"
	"github.com/gwen-interpreter/gwen/internal/results"
	"github.com/gwen-interpreter/gwen/internal/stepengine"
)

// Parser is the Gherkin-AST-producing collaborator this module
// consumes rather than implements (§1 "we consume an AST from a
// Cucumber-compatible Gherkin parser"): given a feature or meta file
// path it returns the parsed, not-yet-normalised Spec.
type Parser func(path string) (*ast.Spec, error)

// Launcher owns the settings and collaborators every unit's
// evaluation shares, and drives the sequential or parallel scheduler
// chosen by cfg.Parallel (§4.I).
type Launcher struct {
	cfg        config.Configuration
	parse      Parser
	dispatcher *report.Dispatcher
}

// New builds a Launcher. reporters may be empty; a launcher with no
// reporters still folds a ResultsSummary, it just has nothing to tell
// about it.
func New(cfg config.Configuration, parse Parser, reporters ...report.Reporter) *Launcher {
	return &Launcher{cfg: cfg, parse: parse, dispatcher: &report.Dispatcher{Reporters: reporters}}
}

// Config satisfies report.Engine, letting reporters read settings
// during Init/Close without this package depending on report for
// anything beyond the Reporter/Engine interfaces.
func (l *Launcher) Config() config.Configuration { return l.cfg }

// Run evaluates every unit — sequentially or in parallel per
// cfg.Parallel — driving the full reporter lifecycle around it (§6
// "init -> reportDetail* -> reportSummary -> close"). A top-level
// SIGINT stops submission of new units, awaits whatever is already
// in flight, and still closes reporters with the partial summary
// (§5 "Cancellation & timeouts").
func (l *Launcher) Run(units []ast.Unit) results.ResultsSummary {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, err := range l.dispatcher.Init(l) {
		gwenlog.Error("reporter init failed: %v", err)
	}

	var summary results.ResultsSummary
	if l.cfg.Parallel {
		summary = l.runParallel(ctx, units)
	} else {
		summary = l.runSequential(ctx, units)
	}

	for _, err := range l.dispatcher.ReportSummary(summary) {
		gwenlog.Error("reporter summary failed: %v", err)
	}
	for _, err := range l.dispatcher.Close(l, summary.OverallStatus) {
		gwenlog.Error("reporter close failed: %v", err)
	}
	return summary
}

// runSequential implements §4.I's sequential mode: fold the unit
// stream one at a time, emitting each detail as it completes, and
// stopping early on a failfast threshold — but never in dry-run,
// since a dry-run's "failures" are just undefined-step discovery, not
// a reason to abandon the rest of the sweep.
func (l *Launcher) runSequential(ctx context.Context, units []ast.Unit) results.ResultsSummary {
	var summary results.ResultsSummary
	for _, u := range units {
		select {
		case <-ctx.Done():
			return summary
		default:
		}

		r := l.evaluateUnit(ctx, u)
		summary = results.Fold(summary, r)
		l.reportDetail(r)

		if l.cfg.FailfastExit && !l.cfg.DryRun && summary.OverallStatus.IsError() {
			break
		}
	}
	return summary
}

// runParallel implements §4.I's parallel-by-feature mode: one future
// per unit, a bounded pool of maxThreads concurrent evaluations, and
// a ramp-up stagger across the pool's first wave of workers so they
// don't all start hitting bindings/IO at once.
func (l *Launcher) runParallel(ctx context.Context, units []ast.Unit) results.ResultsSummary {
	maxThreads := l.cfg.EffectiveMaxThreads(runtime.NumCPU())
	rampup := time.Duration(l.cfg.RampupIntervalSeconds) * time.Second
	sem := make(chan struct{}, maxThreads)

	futures := make([]*future.Future[results.SpecResult], len(units))
	for i, u := range units {
		i, u := i, u
		delay := time.Duration(0)
		if i < maxThreads {
			delay = time.Duration(i) * rampup
		}
		futures[i] = future.New(func() (results.SpecResult, error) {
			if delay > 0 {
				time.Sleep(delay)
			}
			select {
			case <-ctx.Done():
				return results.New(u, nil, gwenerr.InterruptedError("cancelled before submission"), time.Now(), time.Now()), nil
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()
			return l.evaluateUnit(ctx, u), nil
		})
	}

	vals, _ := future.All(futures...)
	results.SortByFinished(vals)

	var summary results.ResultsSummary
	for _, r := range vals {
		summary = results.Fold(summary, r)
		l.reportDetail(r)
	}
	return summary
}

func (l *Launcher) reportDetail(r results.SpecResult) {
	for _, err := range l.dispatcher.ReportDetail(r) {
		gwenlog.Error("reporter detail failed for %q: %v", r.Unit.FeatureFile, err)
	}
}

// evaluateUnit owns one unit end to end: parse feature + meta files,
// normalise, build a fresh EvalContext (§4.I "each task owns its own
// evaluation context"), load StepDefs and evaluate. A per-unit hard
// timeout races the evaluation itself; on expiry the unit is recorded
// Failed with an Interrupted error rather than waiting on a step
// engine that does not support mid-evaluation cancellation (§5 "the
// engine itself never blocks on shared data" — there is nothing
// inside it a timeout could meaningfully interrupt other than the
// wait for its result).
func (l *Launcher) evaluateUnit(ctx context.Context, u ast.Unit) results.SpecResult {
	started := time.Now()

	if l.cfg.UnitTimeoutSeconds <= 0 {
		spec, err := l.evaluate(u)
		return results.New(u, spec, err, started, time.Now())
	}

	type outcome struct {
		spec *ast.Spec
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		spec, err := l.evaluate(u)
		done <- outcome{spec, err}
	}()

	select {
	case o := <-done:
		return results.New(u, o.spec, o.err, started, time.Now())
	case <-time.After(time.Duration(l.cfg.UnitTimeoutSeconds) * time.Second):
		return results.New(u, nil, gwenerr.InterruptedError("unit timeout exceeded"), started, time.Now())
	case <-ctx.Done():
		return results.New(u, nil, gwenerr.InterruptedError("SIGINT"), started, time.Now())
	}
}

func (l *Launcher) evaluate(u ast.Unit) (*ast.Spec, error) {
	spec, err := l.parse(u.FeatureFile)
	if err != nil {
		return nil, gwenerr.Wrap(gwenerr.Syntax, err, "parsing %q", u.FeatureFile)
	}

	metaSpecs := make([]*ast.Spec, 0, len(u.MetaFiles))
	for _, mf := range u.MetaFiles {
		m, err := l.parse(mf)
		if err != nil {
			return nil, gwenerr.Wrap(gwenerr.Syntax, err, "parsing meta file %q", mf)
		}
		metaSpecs = append(metaSpecs, m)
	}
	spec = spec.WithMetaSpecs(metaSpecs)

	spec = normalise.Normalise(spec)

	engine := stepengine.New(l.cfg, binding.NewRegistry(), eventbus.New())
	if u.HasDataRecord() {
		engine.SetUnitData(u.DataRecord)
	}
	engine.LoadStepDefs(spec.AllStepDefs())

	return engine.EvaluateSpec(spec), nil
}
