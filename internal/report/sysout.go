package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/results"
	"github.com/gwen-interpreter/gwen/internal/status"
)

var defaultSysoutWriter io.Writer = os.Stdout

// SysoutReporter is the one concrete Reporter this module ships (§6
// "-f ... sysout"): a line-per-unit progress printer. The richer
// HTML/JUnit/JSON/rp formats stay out-of-scope collaborators, but
// sysout is simple enough to be worth implementing directly rather
// than leaving every format equally unimplemented.
//
// Grounded on the teacher's internal/svc/sout/sout.go: a tiny actor
// whose only operation is "println a formatted line", generalised
// here from "print whatever payload a caller sends" to "print one
// line per finalised SpecResult, plus a closing summary line".
type SysoutReporter struct {
	BaseReporter
	Out io.Writer
}

func (s *SysoutReporter) ReportDetail(r results.SpecResult) (string, error) {
	if r.Error != "" {
		fmt.Fprintf(s.writer(), "%-10s %s: %s\n", r.Status, r.Unit.FeatureFile, r.Error)
	} else {
		fmt.Fprintf(s.writer(), "%-10s %s\n", r.Status, r.Unit.FeatureFile)
	}
	return "", nil
}

func (s *SysoutReporter) ReportSummary(summary results.ResultsSummary) error {
	sum := results.Summarise(summary.Results)
	fmt.Fprintf(s.writer(), "%d unit(s), overall status: %s\n", len(summary.Results), summary.OverallStatus)
	fmt.Fprintf(s.writer(), "features: %s\n", formatCounts(sum.FeatureCounts))
	fmt.Fprintf(s.writer(), "scenarios: %s\n", formatCounts(sum.ScenarioCounts))
	fmt.Fprintf(s.writer(), "steps: %s\n", formatCounts(sum.StepCounts))
	fmt.Fprintf(s.writer(), "elapsed: %s\n", sum.Elapsed())
	return nil
}

func formatCounts(counts map[status.Status]int) string {
	if len(counts) == 0 {
		return "none"
	}
	statuses := make([]status.Status, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		parts = append(parts, fmt.Sprintf("%s=%d", st, counts[st]))
	}
	return strings.Join(parts, ", ")
}

func (s *SysoutReporter) Close(Engine, status.Status) error { return nil }

func (s *SysoutReporter) writer() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return defaultSysoutWriter
}
