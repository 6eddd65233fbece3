package replctx

import (
	"testing"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/status"
)

func unitSpec(name, stepText string) (ast.Unit, *ast.Spec) {
	feature := ast.NewFeature("f-"+name, ast.SourceRef{}, "en", nil, "Feature", name, "")
	scenario := ast.NewScenario("sc-"+name, ast.SourceRef{}, nil, "Scenario", "scenario "+name, "", nil,
		[]ast.Step{ast.NewStep("st-"+name, ast.SourceRef{}, "Given", stepText)}, nil)
	spec := ast.NewSpec("s-"+name, ast.SourceRef{}, feature, nil, []ast.Scenario{scenario}, nil, nil, name+".feature")
	unit := ast.NewUnit("u-"+name, ast.SourceRef{}, name+".feature", nil, nil, 0)
	return unit, spec
}

func TestStepDefsLoadedOnceSurviveAcrossUnits(t *testing.T) {
	s := NewSession(config.Default(), binding.NewRegistry(), eventbus.New())
	stepDef := ast.NewStepDef("sd1", ast.SourceRef{}, []ast.Tag{ast.NewTag("t1", ast.SourceRef{}, "StepDef", nil)},
		"Given", "a greeting", "", []ast.Step{ast.NewStep("sdst", ast.SourceRef{}, "Given", `username is "bob"`)}, nil)
	s.LoadStepDefs([]ast.StepDef{stepDef})

	u1, spec1 := unitSpec("first", "a greeting")
	out1 := s.EvaluateUnit(u1, spec1)
	if out1.Scenarios[0].EvalStatus.IsError() {
		t.Fatalf("expected the first unit's StepDef call to resolve, got %+v", out1.Scenarios[0])
	}

	u2, spec2 := unitSpec("second", "a greeting")
	out2 := s.EvaluateUnit(u2, spec2)
	if out2.Scenarios[0].EvalStatus.IsError() {
		t.Fatalf("expected the StepDefs library to still be loaded on the second unit, got %+v", out2.Scenarios[0])
	}
}

func TestResetAtStepDefLevelClearsStepDefsLibrary(t *testing.T) {
	cfg := config.Default()
	cfg.StateLevel = config.StateStepDef
	s := NewSession(cfg, binding.NewRegistry(), eventbus.New())
	stepDef := ast.NewStepDef("sd1", ast.SourceRef{}, []ast.Tag{ast.NewTag("t1", ast.SourceRef{}, "StepDef", nil)},
		"Given", "a greeting", "", []ast.Step{ast.NewStep("sdst", ast.SourceRef{}, "Then", `username should be "bob"`)}, nil)
	s.LoadStepDefs([]ast.StepDef{stepDef})

	u1, spec1 := unitSpec("first", "a greeting")
	s.EvaluateUnit(u1, spec1)

	u2, spec2 := unitSpec("second", "a greeting")
	out2 := s.EvaluateUnit(u2, spec2)
	if out2.Scenarios[0].EvalStatus != status.Failed {
		t.Fatalf("expected stepDef-level reset to drop the StepDefs library, got %v", out2.Scenarios[0].EvalStatus)
	}
}

func TestDuplicateStepDefBookkeepingDoesNotLeakAcrossUnits(t *testing.T) {
	s := NewSession(config.Default(), binding.NewRegistry(), eventbus.New())
	dup1 := ast.NewStepDef("sd1", ast.SourceRef{}, []ast.Tag{ast.NewTag("t1", ast.SourceRef{}, "StepDef", nil)},
		"Given", "dup step", "", []ast.Step{ast.NewStep("sdst1", ast.SourceRef{}, "Given", `username is "bob"`)}, nil)
	dup2 := ast.NewStepDef("sd2", ast.SourceRef{}, []ast.Tag{ast.NewTag("t2", ast.SourceRef{}, "StepDef", nil)},
		"Given", "dup step", "", []ast.Step{ast.NewStep("sdst2", ast.SourceRef{}, "Then", `username should be "bob"`)}, nil)
	s.LoadStepDefs([]ast.StepDef{dup1, dup2})

	u1, spec1 := unitSpec("first", "dup step")
	out1 := s.EvaluateUnit(u1, spec1)
	if out1.Scenarios[0].EvalStatus != status.Failed {
		t.Fatalf("expected the first unit to fail its health check on the declared duplicate, got %v", out1.Scenarios[0].EvalStatus)
	}

	s.LoadStepDefs([]ast.StepDef{dup1})
	u2, spec2 := unitSpec("second", "dup step")
	out2 := s.EvaluateUnit(u2, spec2)
	if out2.Scenarios[0].EvalStatus.IsError() {
		t.Fatalf("expected the stale duplicate bookkeeping to be cleared between units, got %v", out2.Scenarios[0].EvalStatus)
	}
}
