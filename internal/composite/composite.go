// Package composite implements Gwen's composite control-flow lambdas
// (§4.H): StepDefCall, IfDefinedCondition, JSCondition, While/Until,
// ForEach and ForEachTableRecord. Each is a pure function from a
// StepDef (or call-step) to a stepctx.Lambda — the translator's
// product, a sealed sum of {Unit, StepDef, Composite} per §9
// "Composite lambdas as interface variants", represented here as
// ordinary stepctx.Lambda values rather than a tagged interface, since
// Go closures already give every variant the same call shape.
//
// Grounded on the teacher's per-call environment pairing
// (internal/evaluator/evaluator.go's PushEnv/PopEnv around a call, and
// internal/object/environment.go's NewEnclosedEnvironment) generalised
// from "one fresh scope per function call" to "one fresh scope per
// StepDef call or loop iteration" (§9 "Coroutine-style control flow...
// for-each, while, until are plain loops").
package composite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/scope"
	"github.com/gwen-interpreter/gwen/internal/scriptexpr"
	"github.com/gwen-interpreter/gwen/internal/status"
	"github.com/gwen-interpreter/gwen/internal/stepctx"
)

const (
	defaultMaxIterations = 1000
)

// Dispatch inspects stepDef's reserved tags and returns the lambda
// that should run in place of a plain StepDef call, per §4.H: a
// @ForEach+@DataTable StepDef gets ForEachTableRecord, a lone @ForEach
// gets ForEach, @If gets IfDefinedCondition, @While/@Until get a
// JSCondition-guarded loop, and anything else gets a plain
// StepDefCall. This is the "composite translator, then StepDef
// lookup" ordering of §4.G folded into one step: the StepDef lookup
// itself decides which lambda kind its tags call for.
func Dispatch(stepDef ast.StepDef, callStep ast.Step) (stepctx.Lambda, error) {
	switch {
	case stepDef.IsForEach() && stepDef.DataTable != nil:
		return ForEachTableRecord(stepDef, callStep), nil
	case stepDef.IsForEach():
		return ForEach(stepDef, callStep), nil
	case ast.HasTag(stepDef.Tags, ast.TagIf):
		tag, _ := ast.FindTag(stepDef.Tags, ast.TagIf)
		name, negate := conditionName(tag)
		return IfDefinedCondition(stepDef, callStep, name, negate), nil
	case ast.HasTag(stepDef.Tags, ast.TagWhile):
		tag, _ := ast.FindTag(stepDef.Tags, ast.TagWhile)
		expr, _ := conditionName(tag)
		return whileOrUntil(stepDef, callStep, expr, false), nil
	case ast.HasTag(stepDef.Tags, ast.TagUntil):
		tag, _ := ast.FindTag(stepDef.Tags, ast.TagUntil)
		expr, _ := conditionName(tag)
		return whileOrUntil(stepDef, callStep, expr, true), nil
	default:
		return StepDefCall(stepDef, callStep), nil
	}
}

// conditionName extracts a tag's string value and a leading-"!"
// negation flag, e.g. `@If("!authToken")` tests authToken is unbound.
func conditionName(tag ast.Tag) (name string, negate bool) {
	if tag.Value == nil {
		return "", false
	}
	v := *tag.Value
	if strings.HasPrefix(v, "!") {
		return v[1:], true
	}
	return v, false
}

// StepDefCall binds stepDef's params in a new param scope, executes
// its body steps in source order, unbinds on exit, and reports the
// call step's status as the aggregated status of its body (§4.H
// "StepDefCall").
func StepDefCall(stepDef ast.StepDef, callStep ast.Step) stepctx.Lambda {
	return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
		if ctx.Scope.ContainsScope(scope.KindStepDef, stepDef.Name) {
			return step, gwenerr.RecursiveStepDefError(stepDef.Name)
		}
		ctx.PushScope(scope.KindStepDef, stepDef.Name)
		defer ctx.PopScope()
		ctx.PushCall(&stepDef)
		defer ctx.PopCall()
		bindParams(stepDef, step, ctx)

		nested, err := evalBody(stepDef, step, ctx)
		if err != nil {
			return step, err
		}
		return step.WithNested(nested).WithStatus(aggregateStatus(nested, true)), nil
	}
}

// bindParams binds stepDef.ParamNames into the fresh param scope just
// pushed by the caller. Dispatch is exact-text match (§4.G "StepDef
// dispatch... exact, after interpolation"), so a plain StepDefCall has
// no capture groups to draw argument values from; they come instead
// from the call step's own table (first row, positional) and from any
// params the call step itself inherited as a nested StepDef body.
func bindParams(stepDef ast.StepDef, callStep ast.Step, ctx *stepctx.Context) {
	if callStep.Table != nil && len(callStep.Table.Rows) > 0 {
		row := callStep.Table.Rows[0]
		for i, name := range stepDef.ParamNames {
			if i < len(row.Cells) {
				ctx.Scope.Set(name, row.Cells[i])
			}
		}
	}
	for name, val := range callStep.CallerParams {
		ctx.Scope.Set(name, val)
	}
	for name, val := range callStep.Params {
		ctx.Scope.Set(name, val)
	}
}

// evalBody runs stepDef's steps in order under a shared RunSequence,
// threading the call step's own params in as CallerParams.
func evalBody(stepDef ast.StepDef, callStep ast.Step, ctx *stepctx.Context) ([]ast.Step, error) {
	return RunSequence(&stepDef, stepDef.Steps, callStep.Params, ctx)
}

// RunSequence evaluates steps in source order through ctx.Eval,
// stopping further evaluation once one has failed — unless that
// failure is a soft assertion under AssertionMode=soft, which is
// allowed to continue (§4.G step 5). Shared by StepDefCall/While/
// ForEach and by the step engine's own scenario-level step runner, so
// the short-circuit rule lives in exactly one place.
func RunSequence(parent ast.Node, steps []ast.Step, callerParams map[string]string, ctx *stepctx.Context) ([]ast.Step, error) {
	out := make([]ast.Step, 0, len(steps))
	failed := false
	for _, st := range steps {
		if failed {
			out = append(out, st.WithStatus(status.Skipped))
			continue
		}
		st = st.WithCallerParams(callerParams)
		evaluated, err := ctx.Eval(parent, st, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, evaluated)
		if evaluated.EvalStatus == status.Failed {
			failed = true
		}
		if evaluated.EvalStatus == status.Sustained && ctx.Config.AssertionMode != "soft" {
			failed = true
		}
	}
	return out, nil
}

func aggregateStatus(steps []ast.Step, isStepDef bool) status.Status {
	children := make([]status.Status, len(steps))
	for i, s := range steps {
		children[i] = s.EvalStatus
	}
	return status.Aggregate(children, status.AggregateOptions{IsStepDef: isStepDef})
}

// IfDefinedCondition tests whether name has a successful binding (or
// has failed to resolve, if negate) and executes the StepDef body iff
// satisfied; otherwise it abstains, yielding Passed without running
// the body (§4.H "IfDefinedCondition").
func IfDefinedCondition(stepDef ast.StepDef, callStep ast.Step, name string, negate bool) stepctx.Lambda {
	return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
		_, bound := ctx.Scope.Get(name)
		satisfied := bound
		if negate {
			satisfied = !bound
		}
		if !satisfied {
			return step.WithStatus(status.Passed), nil
		}
		return StepDefCall(stepDef, callStep)(parent, step, ctx)
	}
}

// JSCondition evaluates a scriptexpr expression that must produce a
// truthy/falsy value against the current scope, used by While/Until
// to decide whether to keep looping (§4.H "JSCondition").
func JSCondition(expression string, negate bool, ctx *stepctx.Context) (bool, error) {
	v, err := scriptexpr.EvalBool(expression, ctx.Scope.Get)
	if err != nil {
		return false, gwenerr.Wrap(gwenerr.JSExecution, err, "JSCondition %q failed", expression)
	}
	if negate {
		return !v, nil
	}
	return v, nil
}

// whileOrUntil builds the While/Until loop lambda (§4.H "While/Until"):
// Until runs the body first then tests; While tests first. Both run
// every iteration against the ambient scope (see runIteration); no
// per-iteration param scope is pushed. Both are bounded by
// defaultMaxIterations to guarantee termination when the configured
// condition never flips.
func whileOrUntil(stepDef ast.StepDef, callStep ast.Step, expr string, runBodyFirst bool) stepctx.Lambda {
	return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
		var iterations []ast.Step
		for i := 0; i < defaultMaxIterations; i++ {
			if !runBodyFirst {
				keepGoing, err := JSCondition(expr, false, ctx)
				if err != nil {
					return step, err
				}
				if !keepGoing {
					break
				}
			}

			iterStep, err := runIteration(stepDef, callStep, ctx, i)
			if err != nil {
				return step, err
			}
			iterations = append(iterations, iterStep)
			if iterStep.EvalStatus == status.Failed {
				break
			}

			if runBodyFirst {
				stop, err := JSCondition(expr, false, ctx)
				if err != nil {
					return step, err
				}
				if stop {
					break
				}
			}
		}
		return step.WithNested(iterations).WithStatus(aggregateStatus(iterations, false)), nil
	}
}

// runIteration runs one While/Until pass directly against the ambient
// scope rather than an isolated one: the spec's "fresh param scope" is
// StepDefCall's concern (new parameter bindings per call), while a
// loop's own condition variable is typically mutated by the body
// itself and must stay visible to the next pass's JSCondition check.
func runIteration(stepDef ast.StepDef, callStep ast.Step, ctx *stepctx.Context, index int) (ast.Step, error) {
	ctx.Scope.Set("iteration.number", strconv.Itoa(index+1))

	nested, err := evalBody(stepDef, callStep, ctx)
	if err != nil {
		return callStep, err
	}
	return callStep.WithNested(nested).WithStatus(aggregateStatus(nested, true)), nil
}

// ForEach binds elementName to each value of elements in turn,
// executes the StepDef body, and collects per-iteration Step results
// under the call step's Nested slice — a synthetic outline-like
// structure (§4.H "ForEach"). elementName is the StepDef's first
// declared param; elements come from the call step's own table, one
// value per row's first cell.
func ForEach(stepDef ast.StepDef, callStep ast.Step) stepctx.Lambda {
	elementName := "value"
	if len(stepDef.ParamNames) > 0 {
		elementName = stepDef.ParamNames[0]
	}
	elements := elementsFromTable(callStep.Table)

	return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
		var iterations []ast.Step
		for i, elem := range elements {
			ctx.PushScope(scope.KindRecord, fmt.Sprintf("%s[%d]", elementName, i))
			ctx.Scope.Set(elementName, elem)
			ctx.Scope.Set("iteration.number", strconv.Itoa(i+1))
			nested, err := evalBody(stepDef, callStep, ctx)
			ctx.PopScope()
			if err != nil {
				return step, err
			}
			iterations = append(iterations, callStep.WithNested(nested).WithStatus(aggregateStatus(nested, true)))
		}
		return step.WithNested(iterations).WithStatus(aggregateStatus(iterations, false)), nil
	}
}

func elementsFromTable(table *ast.RawTable) []string {
	if table == nil {
		return nil
	}
	out := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) > 0 {
			out = append(out, row.Cells[0])
		}
	}
	return out
}

// ForEachTableRecord specialises ForEach over a DataTable: for each
// record it binds `data.<col>` per column and `record.number`, in a
// fresh record scope, then runs the StepDef body (§4.H
// "ForEachTableRecord").
func ForEachTableRecord(stepDef ast.StepDef, callStep ast.Step) stepctx.Lambda {
	return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
		if callStep.Table == nil {
			return step, gwenerr.New(gwenerr.DataTable, "StepDef %q is @ForEach+@DataTable but its call step has no table", stepDef.Name)
		}
		records, err := stepDef.DataTable.Records(*callStep.Table)
		if err != nil {
			return step, gwenerr.Wrap(gwenerr.DataTable, err, "StepDef %q DataTable", stepDef.Name)
		}

		var iterations []ast.Step
		for i, rec := range records {
			ctx.PushScope(scope.KindRecord, fmt.Sprintf("%s#%d", stepDef.Name, i))
			for col, val := range rec {
				ctx.Scope.Set("data."+col, val)
			}
			ctx.Scope.Set("record.number", strconv.Itoa(i+1))
			nested, err := evalBody(stepDef, callStep, ctx)
			ctx.PopScope()
			if err != nil {
				return step, err
			}
			iterations = append(iterations, callStep.WithNested(nested).WithStatus(aggregateStatus(nested, true)))
		}
		return step.WithNested(iterations).WithStatus(aggregateStatus(iterations, false)), nil
	}
}
