// Package results implements Gwen's result-tree types (§4.I, §5):
// SpecResult captures one evaluated FeatureUnit, ResultsSummary folds
// a stream of them into the batch's overall outcome. Grounded on the
// teacher's internal/svc/sout/sout.go (a small buffered response
// struct returned from a worker to its caller) generalised from "one
// write's outcome" to "one unit's outcome".
package results

import (
	"sort"
	"time"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/status"
)

// SpecResult is the immutable, finalised outcome of evaluating one
// FeatureUnit (§6 "Reporters receive already-finalised, immutable
// SpecResult values"). Spec is nil when parsing failed before
// evaluation ever started, in which case Error names why.
type SpecResult struct {
	Unit     ast.Unit
	Spec     *ast.Spec
	Status   status.Status
	Error    string
	Started  time.Time
	Finished time.Time
}

// New aggregates spec's top-level and per-rule scenario statuses into
// the unit's own status (§3 "status aggregation at a parent is
// computed after all children finish"). When err is non-nil the unit
// never reached evaluation and is recorded Failed outright.
func New(unit ast.Unit, spec *ast.Spec, err error, started, finished time.Time) SpecResult {
	if err != nil {
		return SpecResult{Unit: unit, Status: status.Failed, Error: err.Error(), Started: started, Finished: finished}
	}
	statuses := make([]status.Status, 0, len(spec.Scenarios))
	for _, sc := range spec.Scenarios {
		if sc.IsStepDef() {
			continue
		}
		statuses = append(statuses, sc.EvalStatus)
	}
	for _, r := range spec.Rules {
		for _, sc := range r.Scenarios {
			if sc.IsStepDef() {
				continue
			}
			statuses = append(statuses, sc.EvalStatus)
		}
	}
	return SpecResult{
		Unit:     unit,
		Spec:     spec,
		Status:   status.Aggregate(statuses, status.AggregateOptions{}),
		Started:  started,
		Finished: finished,
	}
}

// ResultsSummary is the batch-level fold of every unit's SpecResult
// (§4.I "folded into a summary").
type ResultsSummary struct {
	Results       []SpecResult
	OverallStatus status.Status
}

// Fold appends r to summary and raises OverallStatus to cover it,
// returning the updated summary (§4.I "Fold the unit stream into a
// ResultsSummary").
func Fold(summary ResultsSummary, r SpecResult) ResultsSummary {
	summary.Results = append(summary.Results, r)
	summary.OverallStatus = status.Max(summary.OverallStatus, r.Status)
	return summary
}

// SortByFinished orders results by finish-time ascending, ties broken
// by their existing (input) order — the one ordering guarantee the
// parallel scheduler makes across units (§5 "Cross-unit: no guarantee
// except that the ResultsSummary's iteration order is finish-time
// ascending, ties broken by input order").
func SortByFinished(rs []SpecResult) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Finished.Before(rs[j].Finished) })
}

// Summary is the reporter-facing tally a SysoutReporter.ReportSummary
// (or any other Reporter) renders from a ResultsSummary: how many
// features, scenarios and steps landed at each status, plus the
// batch's wall-clock span. Grounded on the same sout.go response
// struct as SpecResult, generalised from "one outcome" to "counts of
// many", the way the teacher's own CLI summarises a batch run.
type Summary struct {
	FeatureCounts  map[status.Status]int
	ScenarioCounts map[status.Status]int
	StepCounts     map[status.Status]int
	Started        time.Time
	Finished       time.Time
}

// Elapsed is the batch's wall-clock duration, Finished minus Started.
func (s Summary) Elapsed() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Summarise tallies rs into a Summary. Started/Finished are the
// earliest started and latest finished timestamps across every
// result, so Elapsed reflects the batch's actual wall-clock span
// rather than the sum of each unit's own duration.
func Summarise(rs []SpecResult) Summary {
	sum := Summary{
		FeatureCounts:  map[status.Status]int{},
		ScenarioCounts: map[status.Status]int{},
		StepCounts:     map[status.Status]int{},
	}
	for i, r := range rs {
		if i == 0 || r.Started.Before(sum.Started) {
			sum.Started = r.Started
		}
		if i == 0 || r.Finished.After(sum.Finished) {
			sum.Finished = r.Finished
		}
		sum.FeatureCounts[r.Status]++
		if r.Spec == nil {
			continue
		}
		tallyScenarios(sum, r.Spec.Scenarios)
		for _, rule := range r.Spec.Rules {
			tallyScenarios(sum, rule.Scenarios)
		}
	}
	return sum
}

func tallyScenarios(sum Summary, scenarios []ast.Scenario) {
	for _, sc := range scenarios {
		if sc.IsStepDef() {
			continue
		}
		sum.ScenarioCounts[sc.EvalStatus]++
		for _, step := range sc.AllSteps() {
			sum.StepCounts[step.EvalStatus]++
		}
	}
}
