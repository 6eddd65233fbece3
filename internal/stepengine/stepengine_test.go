package stepengine

import (
	"testing"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/status"
)

func newTestEngine() *Engine {
	return New(config.Default(), binding.NewRegistry(), eventbus.New())
}

func specWith(scenarios []ast.Scenario) *ast.Spec {
	feature := ast.NewFeature("f1", ast.SourceRef{}, "en", nil, "Feature", "login", "")
	return ast.NewSpec("s1", ast.SourceRef{}, feature, nil, scenarios, nil, nil, "login.feature")
}

func TestUnitTranslatorBindsAndAsserts(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "binds a value", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `username is "bob"`),
			ast.NewStep("st2", ast.SourceRef{}, "Then", `username should be "bob"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Passed {
		t.Fatalf("expected Passed, got %v (steps=%+v)", got.EvalStatus, got.Steps)
	}
	for _, st := range got.Steps {
		if st.EvalStatus != status.Passed {
			t.Fatalf("step %q did not pass: %v %s", st.Text, st.EvalStatus, st.ErrorMessage)
		}
	}
}

func TestUnitTranslatorFailsOnAssertionMismatch(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "assertion fails", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `username is "bob"`),
			ast.NewStep("st2", ast.SourceRef{}, "Then", `username should be "alice"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Failed {
		t.Fatalf("expected Failed, got %v", got.EvalStatus)
	}
	if got.Steps[1].EvalStatus != status.Failed {
		t.Fatalf("expected the assertion step to be Failed, got %v", got.Steps[1].EvalStatus)
	}
}

func TestUnitTranslatorWiresJSFunctionBinding(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "js function binding", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `increment is defined by js "$0 + 1"`),
			ast.NewStep("st2", ast.SourceRef{}, "Given", `incremented is defined by js function "increment" with args "5" delimited by ","`),
			ast.NewStep("st3", ast.SourceRef{}, "When", `I capture incremented as result`),
			ast.NewStep("st4", ast.SourceRef{}, "Then", `result should be "6"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Passed {
		t.Fatalf("expected Passed, got %v (steps=%+v)", got.EvalStatus, got.Steps)
	}
}

func TestUnitTranslatorWiresJSFunctionBindingWithoutArgs(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "js function binding, no args", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `sum is defined by js "2 + 3"`),
			ast.NewStep("st2", ast.SourceRef{}, "Given", `summed is defined by js function "sum"`),
			ast.NewStep("st3", ast.SourceRef{}, "When", `I capture summed as result`),
			ast.NewStep("st4", ast.SourceRef{}, "Then", `result should be "5"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Passed {
		t.Fatalf("expected Passed, got %v (steps=%+v)", got.EvalStatus, got.Steps)
	}
}

func TestUnitTranslatorWiresDBLoadStrategyBinding(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "db load strategy binding", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `users is loaded from sqlite3 database ":memory:" query "SELECT 1 AS n"`),
			ast.NewStep("st2", ast.SourceRef{}, "When", `I capture users as row`),
			ast.NewStep("st3", ast.SourceRef{}, "Then", `row should be "n=1"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Passed {
		t.Fatalf("expected Passed, got %v (steps=%+v)", got.EvalStatus, got.Steps)
	}
}

func TestUndefinedStepFailsWithoutRunningLaterSteps(t *testing.T) {
	e := newTestEngine()
	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "undefined step", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", "nobody defined this"),
			ast.NewStep("st2", ast.SourceRef{}, "Then", `username should be "bob"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.Steps[0].EvalStatus != status.Failed {
		t.Fatalf("expected the undefined step to be Failed, got %v", got.Steps[0].EvalStatus)
	}
	if got.Steps[1].EvalStatus != status.Skipped {
		t.Fatalf("expected the later step to be Skipped, got %v", got.Steps[1].EvalStatus)
	}
}

func TestStepDefCallRunsThroughFullPipeline(t *testing.T) {
	e := newTestEngine()
	stepDef := ast.NewStepDef("d1", ast.SourceRef{}, nil, "StepDef", "I log in", "",
		[]ast.Step{ast.NewStep("b1", ast.SourceRef{}, "Given", `username is "bob"`)}, nil)

	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "calls a StepDef", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "When", "I log in"),
			ast.NewStep("st2", ast.SourceRef{}, "Then", `username should be "bob"`),
		}, nil)

	spec := specWith([]ast.Scenario{scenario})
	spec.StepDefs = []ast.StepDef{stepDef}
	e.LoadStepDefs(spec.StepDefs)

	out := e.EvaluateSpec(spec)
	got := out.Scenarios[0]
	if got.EvalStatus != status.Passed {
		t.Fatalf("expected Passed, got %v", got.EvalStatus)
	}
	if len(got.Steps[0].Nested) != 1 {
		t.Fatalf("expected the StepDef call to carry its body step nested, got %+v", got.Steps[0])
	}
}

func TestDuplicateStepDefNamesFailHealthCheck(t *testing.T) {
	e := newTestEngine()
	dupes := []ast.StepDef{
		ast.NewStepDef("d1", ast.SourceRef{}, nil, "StepDef", "I log in", "", nil, nil),
		ast.NewStepDef("d2", ast.SourceRef{}, nil, "StepDef", "I log in", "", nil, nil),
	}
	e.LoadStepDefs(dupes)

	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "ambiguous dispatch", "", nil,
		[]ast.Step{ast.NewStep("st1", ast.SourceRef{}, "When", "I log in")}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	if out.Scenarios[0].EvalStatus != status.Failed {
		t.Fatalf("expected the scenario to fail its health check, got %v", out.Scenarios[0].EvalStatus)
	}
}

func TestBackgroundFailureSkipsScenarioSteps(t *testing.T) {
	e := newTestEngine()
	background := ast.NewBackground("bg1", ast.SourceRef{}, "Background", "", "",
		[]ast.Step{ast.NewStep("b1", ast.SourceRef{}, "Given", "nobody defined this")})

	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "has a failing background", "", &background,
		[]ast.Step{ast.NewStep("st1", ast.SourceRef{}, "When", `username is "bob"`)}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.Background.Steps[0].EvalStatus != status.Failed {
		t.Fatalf("expected the background step to be Failed, got %v", got.Background.Steps[0].EvalStatus)
	}
	if got.Steps[0].EvalStatus != status.Skipped {
		t.Fatalf("expected the scenario's own step to be Skipped, got %v", got.Steps[0].EvalStatus)
	}
}

func TestDryRunLoadsWithoutExecuting(t *testing.T) {
	cfg := config.Default()
	cfg.DryRun = true
	e := New(cfg, binding.NewRegistry(), eventbus.New())

	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "dry run", "", nil,
		[]ast.Step{ast.NewStep("st1", ast.SourceRef{}, "Given", `username is "bob"`)}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.Steps[0].EvalStatus != status.Loaded {
		t.Fatalf("expected Loaded, got %v", got.Steps[0].EvalStatus)
	}
	if _, ok := e.Context().Scope.Get("username"); ok {
		t.Fatalf("dry run should not have bound username into scope")
	}
}

func TestSoftAssertionSustainsRatherThanFails(t *testing.T) {
	cfg := config.Default()
	cfg.AssertionMode = config.AssertionSoft
	e := New(cfg, binding.NewRegistry(), eventbus.New())

	scenario := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario", "soft assertion", "", nil,
		[]ast.Step{
			ast.NewStep("st1", ast.SourceRef{}, "Given", `username is "bob"`),
			ast.NewStep("st2", ast.SourceRef{}, "Then", `username should be "alice"`),
			ast.NewStep("st3", ast.SourceRef{}, "Then", `username should be "bob"`),
		}, nil)

	out := e.EvaluateSpec(specWith([]ast.Scenario{scenario}))
	got := out.Scenarios[0]
	if got.Steps[1].EvalStatus != status.Sustained {
		t.Fatalf("expected the mismatched assertion to be Sustained, got %v", got.Steps[1].EvalStatus)
	}
	if got.Steps[2].EvalStatus != status.Passed {
		t.Fatalf("expected the sibling step after a soft assertion to still run, got %v", got.Steps[2].EvalStatus)
	}
}

func TestOutlineAggregatesAcrossExpandedRecords(t *testing.T) {
	e := newTestEngine()
	passRecord := ast.NewScenario("r1", ast.SourceRef{}, nil, "Scenario", "outline -- examples (record 1 of 2)", "", nil,
		[]ast.Step{ast.NewStep("st1", ast.SourceRef{}, "Given", `username is "bob"`)}, nil)
	failRecord := ast.NewScenario("r2", ast.SourceRef{}, nil, "Scenario", "outline -- examples (record 2 of 2)", "", nil,
		[]ast.Step{ast.NewStep("st2", ast.SourceRef{}, "Given", "nobody defined this")}, nil)

	examples := ast.NewExamples("ex1", ast.SourceRef{}, nil, "Examples", "examples", "", nil, nil).
		WithScenarios([]ast.Scenario{passRecord, failRecord})
	outline := ast.NewScenario("sc1", ast.SourceRef{}, nil, "Scenario Outline", "outline", "", nil, nil,
		[]ast.Examples{examples})

	out := e.EvaluateSpec(specWith([]ast.Scenario{outline}))
	got := out.Scenarios[0]
	if got.EvalStatus != status.Failed {
		t.Fatalf("expected the outline to aggregate to Failed, got %v", got.EvalStatus)
	}
	if got.Examples[0].Scenarios[0].EvalStatus != status.Passed {
		t.Fatalf("expected the first record to pass independently, got %v", got.Examples[0].Scenarios[0].EvalStatus)
	}
}
