package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/results"
	"github.com/gwen-interpreter/gwen/internal/status"
)

func TestSysoutReporterWritesOneLinePerUnit(t *testing.T) {
	var buf bytes.Buffer
	r := &SysoutReporter{Out: &buf}

	unit := ast.NewUnit("u1", ast.SourceRef{}, "a.feature", nil, nil, 0)
	if _, err := r.ReportDetail(results.SpecResult{Unit: unit, Status: status.Passed}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "a.feature") || !strings.Contains(buf.String(), "Passed") {
		t.Fatalf("expected the detail line to name the unit and its status, got %q", buf.String())
	}
}

func TestSysoutReporterIncludesErrorText(t *testing.T) {
	var buf bytes.Buffer
	r := &SysoutReporter{Out: &buf}

	unit := ast.NewUnit("u1", ast.SourceRef{}, "a.feature", nil, nil, 0)
	r.ReportDetail(results.SpecResult{Unit: unit, Status: status.Failed, Error: "boom"})
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected the error text in the detail line, got %q", buf.String())
	}
}

func TestSysoutReporterSummaryReportsCountAndOverallStatus(t *testing.T) {
	var buf bytes.Buffer
	r := &SysoutReporter{Out: &buf}

	summary := results.ResultsSummary{Results: []results.SpecResult{{}, {}}, OverallStatus: status.Failed}
	if err := r.ReportSummary(summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "2 unit(s)") || !strings.Contains(buf.String(), "Failed") {
		t.Fatalf("expected the summary line to name the count and overall status, got %q", buf.String())
	}
}
