// Package stepengine implements Gwen's step evaluation engine (§4.G):
// the interpolate → before-event → health-check → translate → execute
// → finalise → after-event pipeline that walks a normalised Spec's
// scenarios and steps, plus the scenario/rule-level walk that drives
// it unit by unit.
//
// Grounded on the teacher's internal/evaluator/evaluator.go: its `Eval`
// type-switch over AST node kinds and its PushEnv/CurrentEnv/PopEnv
// scope-stack discipline around a call are generalised here from
// "evaluate an expression node" to "evaluate a Gherkin spec node",
// with the StepDef-call/composite half of that switch factored out
// into internal/composite (§4.H) and reached through stepctx.Context's
// Eval hook rather than a type-switch case in this package.
package stepengine

import (
	"fmt"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/composite"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/interpolate"
	"github.com/gwen-interpreter/gwen/internal/scope"
	"github.com/gwen-interpreter/gwen/internal/status"
	"github.com/gwen-interpreter/gwen/internal/stepctx"
)

// errorDetailsAttachment is the reserved attachment name Finalise looks
// for before deciding to synthesise its own (§4.G step 6).
const errorDetailsAttachment = "Error details"

// Engine owns one stepctx.Context and drives it through every node of
// a unit's Spec. One Engine is created per EvalContext (per unit in
// batch mode, or once and reused across units in REPL mode, §5).
type Engine struct {
	ctx *stepctx.Context

	// duplicateStepDefNames is populated by LoadStepDefs when two
	// StepDefs in the same unit share a name; the health check (§4.G
	// step 3) turns a non-empty list into an Ambiguous failure at the
	// first scenario entry of the unit, rather than silently letting
	// the later declaration win the map lookup.
	duplicateStepDefNames []string

	// unitData is the FeatureUnit's associated data record, if any,
	// set by the launcher before EvaluateSpec runs (§4.F).
	unitData map[string]string
}

// SetUnitData installs the FeatureUnit's associated data record, bound
// into feature scope at the start of EvaluateSpec (§4.F "each record
// becomes a FeatureUnit whose data is visible for interpolation
// throughout the feature").
func (e *Engine) SetUnitData(record map[string]string) { e.unitData = record }

// New builds an Engine with a fresh EvalContext, wiring ctx.Eval back
// to the engine's own step pipeline so composite lambdas (which only
// know about stepctx.EvalFunc) recurse into the full pipeline rather
// than a bare translate-and-execute shortcut.
func New(cfg config.Configuration, registry *binding.Registry, bus *eventbus.Bus) *Engine {
	e := &Engine{ctx: stepctx.New(cfg, registry, bus)}
	e.ctx.Eval = e.evalStep
	return e
}

// Context exposes the underlying EvalContext, e.g. for the launcher to
// seed feature-scope data-record bindings before evaluation starts.
func (e *Engine) Context() *stepctx.Context { return e.ctx }

// LoadStepDefs installs a unit's StepDefs library (§5 "StepDefs
// library is loaded once per shared context (REPL) or per unit
// (batch)"). Later StepDefs with a name already seen replace the
// earlier one in the lookup map but are also recorded as a duplicate,
// which the next health check will fail on.
func (e *Engine) LoadStepDefs(stepDefs []ast.StepDef) {
	seen := map[string]bool{}
	for _, sd := range stepDefs {
		if seen[sd.Name] {
			e.duplicateStepDefNames = append(e.duplicateStepDefNames, sd.Name)
		}
		seen[sd.Name] = true
		e.ctx.StepDefs[sd.Name] = sd
	}
}

// ResetBetweenUnits clears engine-local bookkeeping a reused
// EvalContext must not carry from one unit into the next (§5 "reset(level)
// before each unit", §4.D "a state level setting controls which scopes
// are discarded on reset"). The Context's own scope stack already
// unwinds fully at the end of EvaluateSpec via its push/pop symmetry, so
// the only state that would otherwise leak across units is this
// engine's duplicate-StepDef bookkeeping; clearStepDefs additionally
// discards the StepDefs library itself, for callers resetting at
// stepDef granularity rather than feature/scenario granularity.
func (e *Engine) ResetBetweenUnits(clearStepDefs bool) {
	e.duplicateStepDefNames = nil
	if clearStepDefs {
		e.ctx.StepDefs = map[string]ast.StepDef{}
	}
}

// healthCheck runs the one scope-wide precondition this engine enforces
// (§4.G step 3 "detect duplicate bindings"): a StepDef name declared
// more than once in the unit's visible meta/feature libraries is
// ambiguous, since exact-text dispatch can't tell which declaration a
// caller meant.
func (e *Engine) healthCheck() error {
	if len(e.duplicateStepDefNames) == 0 {
		return nil
	}
	return gwenerr.New(gwenerr.Ambiguous, "StepDef name(s) declared more than once: %s", strings.Join(e.duplicateStepDefNames, ", "))
}

// EvaluateSpec walks every non-StepDef scenario in source order —
// top-level first, then each Rule's scenarios — evaluating outlines
// scenario-by-expanded-record (§5 "Scenarios, backgrounds, rules and
// steps execute in source order within a unit").
func (e *Engine) EvaluateSpec(spec *ast.Spec) *ast.Spec {
	out := *spec
	e.ctx.PushScope(scope.KindFeature, spec.Feature.Name)
	defer e.ctx.PopScope()
	if rec, ok := e.unitDataRecord(); ok {
		for k, v := range rec {
			e.ctx.Scope.Set(k, v)
		}
	}

	e.ctx.PushCall(spec)
	defer e.ctx.PopCall()

	scenarios := make([]ast.Scenario, len(spec.Scenarios))
	copy(scenarios, spec.Scenarios)
	for i, sc := range scenarios {
		if sc.IsStepDef() {
			continue
		}
		scenarios[i] = e.evaluateScenarioOrOutline(sc)
	}
	out.Scenarios = scenarios

	rules := make([]ast.Rule, len(spec.Rules))
	copy(rules, spec.Rules)
	for i, r := range rules {
		rules[i] = e.evaluateRule(r)
	}
	out.Rules = rules
	return &out
}

// unitDataRecord is a seam for the launcher to pre-load a FeatureUnit's
// associated data record into feature scope (§4.F); the engine itself
// carries no Unit, so by default there is nothing to inject here.
func (e *Engine) unitDataRecord() (map[string]string, bool) { return e.unitData, e.unitData != nil }

func (e *Engine) evaluateRule(r ast.Rule) ast.Rule {
	e.ctx.PushScope(scope.KindRule, r.Name)
	defer e.ctx.PopScope()
	e.ctx.PushCall(r)
	defer e.ctx.PopCall()
	e.ctx.Bus.PublishBefore(ast.NodeRule, r, e.ctx.CallChain)

	scenarios := make([]ast.Scenario, len(r.Scenarios))
	copy(scenarios, r.Scenarios)
	for i, sc := range scenarios {
		if sc.IsStepDef() {
			continue
		}
		scenarios[i] = e.evaluateScenarioOrOutline(sc)
	}
	r.Scenarios = scenarios

	e.ctx.Bus.PublishAfter(ast.NodeRule, r, e.ctx.CallChain)
	return r
}

// evaluateScenarioOrOutline runs sc directly, or — when it is an
// outline — runs every expanded record of every Examples table and
// folds their statuses back onto the outline shell (the shell's own
// Steps are never executed, §3 "Invariants across the tree").
func (e *Engine) evaluateScenarioOrOutline(sc ast.Scenario) ast.Scenario {
	if !sc.IsOutline() {
		return e.evaluateScenario(sc)
	}

	var childStatuses []status.Status
	examples := make([]ast.Examples, len(sc.Examples))
	copy(examples, sc.Examples)
	for ei, ex := range examples {
		recs := make([]ast.Scenario, len(ex.Scenarios))
		copy(recs, ex.Scenarios)
		for ri, rec := range recs {
			recs[ri] = e.evaluateScenario(rec)
			childStatuses = append(childStatuses, recs[ri].EvalStatus)
		}
		examples[ei] = ex.WithScenarios(recs)
	}
	sc.Examples = examples
	sc.EvalStatus = status.Aggregate(childStatuses, status.AggregateOptions{})
	return sc
}

// evaluateScenario runs sc's background-then-own steps as a single
// failure sequence (§4.G step 5 treats a scenario's background and own
// steps as one continuous run: a background failure skips the
// scenario's own steps exactly as a mid-scenario failure would skip the
// steps after it), then splits the evaluated steps back into
// Background/Steps for storage.
func (e *Engine) evaluateScenario(sc ast.Scenario) ast.Scenario {
	e.ctx.PushScope(scope.KindScenario, sc.Name)
	defer e.ctx.PopScope()
	for k, v := range sc.Params {
		e.ctx.Scope.Set(k, v)
	}
	sc.CallerParams = sc.Params

	e.ctx.PushCall(sc)
	defer e.ctx.PopCall()
	e.ctx.Bus.PublishBefore(ast.NodeScenario, sc, e.ctx.CallChain)

	if err := e.healthCheck(); err != nil {
		sc.EvalStatus = status.Failed
		e.ctx.Bus.PublishAfter(ast.NodeScenario, sc, e.ctx.CallChain)
		return sc
	}

	all := sc.AllSteps()
	evaluated, err := composite.RunSequence(&sc, all, nil, e.ctx)
	if err != nil {
		// A structural failure escaping RunSequence (rather than being
		// captured as a Failed step by evalStep's Finalise) means the
		// pipeline itself could not run at all; treat the whole scenario
		// as failed without any per-step detail to show.
		sc.EvalStatus = status.Failed
		e.ctx.Bus.PublishAfter(ast.NodeScenario, sc, e.ctx.CallChain)
		return sc
	}

	if sc.Background != nil {
		n := len(sc.Background.Steps)
		bg := *sc.Background
		bg.Steps = evaluated[:n]
		sc.Background = &bg
		sc.Steps = evaluated[n:]
	} else {
		sc.Steps = evaluated
	}
	sc.EvalStatus = aggregateSteps(evaluated, false)

	e.ctx.Bus.PublishAfter(ast.NodeScenario, sc, e.ctx.CallChain)
	return sc
}

func aggregateSteps(steps []ast.Step, isStepDef bool) status.Status {
	statuses := make([]status.Status, len(steps))
	for i, s := range steps {
		statuses[i] = s.EvalStatus
	}
	return status.Aggregate(statuses, status.AggregateOptions{IsStepDef: isStepDef})
}

// evalStep is the per-step pipeline of §4.G, wired as ctx.Eval so every
// step — top-level scenario step or nested StepDef/composite body step
// — runs through the exact same seven stages.
func (e *Engine) evalStep(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
	lookup := ctx.Scope.Get

	// 1. Interpolate. Both placeholder syntaxes resolve against the
	// same scope chain: composites bind $<name> params into the active
	// StepDef-call/record scope (§4.H), so there is nothing left for a
	// params-only lookup to do that a plain scope.Get can't already do.
	text, err := interpolate.Interpolate(step.Text, lookup, lookup, ctx.Config.DryRun)
	if err != nil {
		return e.finalise(step, err), nil
	}
	step = step.WithText(text)

	// 2. Before-step event.
	ctx.Bus.PublishBefore(ast.NodeStep, step, ctx.CallChain)

	// 3. Health check (only meaningfully non-nil at a scenario's first
	// step; cheap and idempotent otherwise, so calling it per-step here
	// costs nothing once the unit's StepDefs are clean).
	if err := e.healthCheck(); err != nil {
		fin := e.finalise(step, err)
		ctx.Bus.PublishAfter(ast.NodeStep, fin, ctx.CallChain)
		return fin, nil
	}

	// 4. Translate.
	lambda, stepDefName, err := e.translate(step, ctx)
	if err != nil {
		fin := e.finalise(step, err)
		ctx.Bus.PublishAfter(ast.NodeStep, fin, ctx.CallChain)
		return fin, nil
	}
	if stepDefName != "" {
		step = step.WithStepDefName(stepDefName)
	}

	// 5. Execute. Dry-run translates and interpolates but never invokes
	// side effects (§6 "-n, --dry-run").
	if ctx.Config.DryRun {
		fin := e.finalise(step.WithStatus(status.Loaded), nil)
		ctx.Bus.PublishAfter(ast.NodeStep, fin, ctx.CallChain)
		return fin, nil
	}
	evaluated, err := lambda(parent, step, ctx)

	// 6. Finalise.
	fin := e.finalise(evaluated, err)

	// 7. After-step event.
	ctx.Bus.PublishAfter(ast.NodeStep, fin, ctx.CallChain)
	return fin, nil
}

// translate implements §4.G step 4: StepDef lookup (which itself folds
// in composite dispatch via the matched StepDef's tags, §4.H) first,
// then the built-in unit translator, then UndefinedStep.
func (e *Engine) translate(step ast.Step, ctx *stepctx.Context) (stepctx.Lambda, string, error) {
	if sd, ok := ctx.StepDefs[step.Text]; ok {
		lambda, err := composite.Dispatch(sd, step)
		if err != nil {
			return nil, "", err
		}
		return lambda, sd.Name, nil
	}
	if lambda, ok := unitTranslate(step.Text); ok {
		return lambda, "", nil
	}
	return nil, "", gwenerr.New(gwenerr.UndefinedStep, "no StepDef or built-in translator matches %q", step.Text)
}

// finalise implements §4.G step 6: drain accumulated attachments onto
// the step, classify an execute-stage error into a terminal status,
// and attach a diagnostic dump for an unexplained Failed step.
func (e *Engine) finalise(step ast.Step, err error) ast.Step {
	step = step.WithAttachments(append(append([]ast.Attachment{}, step.Attachments...), e.ctx.DrainAttachments()...))
	if err != nil {
		step = classifyError(step, err)
	}
	if step.EvalStatus == status.Failed && !hasAttachment(step.Attachments, errorDetailsAttachment) {
		dump := fmt.Sprintf("scope:\n%s\nerror: %s", formatVisible(e.ctx.Scope.Visible()), step.ErrorMessage)
		step = step.AddAttachment(ast.Attachment{Name: errorDetailsAttachment, File: dump})
	}
	return step
}

// classifyError maps an execute-stage error onto a terminal status
// (§4.G step 6 "Promote Failed→Sustained when the failure was tagged
// sustained; Failed→Disabled when the error is Disabled"): a soft
// assertion is the one failure kind Gwen lets a scenario sustain past,
// and a Disabled-kind error marks the step (not the whole unit) inert
// rather than failed.
func classifyError(step ast.Step, err error) ast.Step {
	gerr, ok := err.(*gwenerr.Error)
	if !ok {
		return step.WithError(status.Failed, err.Error())
	}
	switch gerr.Kind {
	case gwenerr.AssertionSoft:
		return step.WithError(status.Sustained, gerr.Error())
	case gwenerr.Disabled:
		return step.WithError(status.Disabled, gerr.Error())
	default:
		return step.WithError(status.Failed, gerr.Error())
	}
}

func hasAttachment(attachments []ast.Attachment, name string) bool {
	for _, a := range attachments {
		if a.Name == name {
			return true
		}
	}
	return false
}

func formatVisible(visible map[string]string) string {
	var b strings.Builder
	for k, v := range visible {
		fmt.Fprintf(&b, "  %s = %q\n", k, v)
	}
	return b.String()
}
