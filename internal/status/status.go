// Package status implements Gwen's evaluation-status algebra: the
// ordered set of outcomes a Step, Scenario, Feature or Unit can settle
// into, and the aggregation rule that derives a composite node's status
// from its evaluated children.
package status

// Status is a closed, ordered evaluation outcome. Ordering matters:
// aggregation picks the maximum of a set of statuses.
type Status int

const (
	Passed Status = iota
	Loaded
	Sustained
	Skipped
	Pending
	Disabled
	Failed
)

var names = [...]string{
	Passed:    "Passed",
	Loaded:    "Loaded",
	Sustained: "Sustained",
	Skipped:   "Skipped",
	Pending:   "Pending",
	Disabled:  "Disabled",
	Failed:    "Failed",
}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(names) {
		return "Unknown"
	}
	return names[s]
}

// IsError reports whether a status represents a non-terminal-success
// outcome for the purposes of exit-code computation (§8 property 9):
// anything other than Passed/Skipped/Sustained/Loaded is an error.
func (s Status) IsError() bool {
	switch s {
	case Passed, Skipped, Sustained, Loaded:
		return false
	default:
		return true
	}
}

// EvalExitCode follows the teacher's `isError` short-circuit idiom:
// 0 for Passed/Skipped/Sustained/Loaded, 1 for Failed/Pending/otherwise.
func EvalExitCode(s Status) int {
	if s.IsError() {
		return 1
	}
	return 0
}

// Max returns the greater of two statuses under the ordering above.
func Max(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// isStepDefNode marks whether a composite's absorbing aggregation rule
// should be bypassed. A StepDef call keeps a Sustained status visible at
// its own boundary (so the call site's caller still sees "a sustained
// failure happened in here"); any other composite absorbs Sustained into
// Passed once it has propagated past that boundary once.
type AggregateOptions struct {
	// IsStepDef marks the parent composite as a StepDef call boundary.
	IsStepDef bool
}

// Aggregate computes the status of a composite node from the statuses of
// its evaluated children, applying the Sustained-absorption rule: a
// Sustained status is collapsed to Passed when aggregating into a
// non-StepDef parent (§3 "Status algebra"). It is a no-op on an empty
// child set (returns Passed, the identity of Max under this ordering).
func Aggregate(children []Status, opts AggregateOptions) Status {
	result := Passed
	for _, c := range children {
		result = Max(result, c)
	}
	if result == Sustained && !opts.IsStepDef {
		return Passed
	}
	return result
}
