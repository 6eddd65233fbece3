// Package report implements the Reporter contract of §6: the seam
// through which the core hands finalised results to out-of-scope
// formatters (HTML/JUnit/JSON/rp/sysout emitters are collaborators;
// only this contract is specified). Grounded on the teacher's
// internal/svc/sout/sout.go — a small actor wrapping an external sink
// behind a narrow request/response shape — generalised here from "one
// actor, one write call" to "a registered listener driven through a
// fixed init/detail/summary/close lifecycle".
package report

import (
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/results"
	"github.com/gwen-interpreter/gwen/internal/status"
)

// Engine is the narrow view of the launcher a Reporter needs during
// Init/Close — just enough to read settings, never enough to drive
// evaluation (§6 "init(engine)"). Kept as an interface so this
// package never imports internal/launcher.
type Engine interface {
	Config() config.Configuration
}

// Reporter is the fixed lifecycle every report sink implements (§6
// "Reporter contract"): Init once before any unit runs, ReportDetail
// once per finished unit, ReportSummary once after every unit has
// been folded, Close once at the very end with the run's final
// status. Reporters receive already-finalised, immutable SpecResult
// values and must not block the launcher for long — a slow reporter
// serialises every other reporter behind it (§5 "reporters observe
// per-unit events in-order").
type Reporter interface {
	Init(engine Engine) error
	ReportDetail(result results.SpecResult) (path string, err error)
	ReportSummary(summary results.ResultsSummary) error
	Close(engine Engine, finalStatus status.Status) error
}

// BaseReporter is embeddable by reporters that only care about a
// subset of the lifecycle, mirroring eventbus.BaseListener's
// no-op-by-default pattern.
type BaseReporter struct{}

func (BaseReporter) Init(Engine) error                               { return nil }
func (BaseReporter) ReportDetail(results.SpecResult) (string, error) { return "", nil }
func (BaseReporter) ReportSummary(results.ResultsSummary) error      { return nil }
func (BaseReporter) Close(Engine, status.Status) error               { return nil }

// Dispatcher runs a unit's reporter lifecycle over a sequence of
// reporters, swallowing no errors itself (§6 gives reporters a fixed
// contract, it does not say the core tolerates a broken one) but
// running every reporter even if an earlier one fails, so one broken
// sink never silences the others.
type Dispatcher struct {
	Reporters []Reporter
}

func (d *Dispatcher) Init(engine Engine) []error {
	var errs []error
	for _, r := range d.Reporters {
		if err := r.Init(engine); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *Dispatcher) ReportDetail(result results.SpecResult) []error {
	var errs []error
	for _, r := range d.Reporters {
		if _, err := r.ReportDetail(result); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *Dispatcher) ReportSummary(summary results.ResultsSummary) []error {
	var errs []error
	for _, r := range d.Reporters {
		if err := r.ReportSummary(summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *Dispatcher) Close(engine Engine, finalStatus status.Status) []error {
	var errs []error
	for _, r := range d.Reporters {
		if err := r.Close(engine, finalStatus); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
