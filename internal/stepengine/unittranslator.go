// The unit translator is Gwen's small fixed vocabulary of built-in
// step meanings (§1 "The core does not define step meaning beyond a
// small fixed vocabulary (binding, capture, assertion primitives)").
// It is the final fallback of the translate stage (§4.G step 4), tried
// after StepDef lookup fails.
//
// Grounded on the teacher's name-keyed builtins registry
// (internal/evaluator/builtins.go's `map[string]*object.Builtin`),
// generalised from exact-name keys to ordered regex patterns, since a
// unit-translator step carries its literal arguments inline in the
// step text rather than as call arguments.
package stepengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/scope"
	"github.com/gwen-interpreter/gwen/internal/scriptexpr"
	"github.com/gwen-interpreter/gwen/internal/status"
	"github.com/gwen-interpreter/gwen/internal/stepctx"
)

type unitRule struct {
	pattern *regexp.Regexp
	build   func(groups []string) stepctx.Lambda
}

// unitRules is tried top-down; the first matching pattern wins. Each
// rule's build function closes over the matched groups and returns a
// lambda that reads/writes ctx.Scope and ctx.Registry the same way a
// StepDef body step would, so unit-translator steps compose with
// composites exactly like any other step.
var unitRules = []unitRule{
	{
		// The normaliser's own synthetic DataTable-outline binding steps
		// (internal/normalise "string N is \"value\"") are handled by
		// this same general "<name> is <value>" pattern, not a special case.
		pattern: regexp.MustCompile(`^(.+?) is "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, value := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, &binding.ValueBinding{Value: value})
				// A StepDef call's scope holds its parameters only; a value
				// bound by one of its body steps lands in the scope the call
				// was made from, so it outlives the call.
				target := ctx.Scope
				for target.Kind == scope.KindStepDef && target.Outer() != nil {
					target = target.Outer()
				}
				target.Set(name, value)
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) is defined by js "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, src := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, &binding.JSBinding{Source: src, IsLazy: true})
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		// The richer JSFunction form (explicit args + delimiter) is tried
		// before the plain form below, since the plain form's greedy
		// `"(.*)"` would otherwise swallow the trailing "with args ..."
		// clause into its jsRef capture.
		pattern: regexp.MustCompile(`^(.+?) is defined by js function "(.*)" with args "(.*)" delimited by "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, jsRef, args, delimiter := g[1], g[2], g[3], g[4]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, binding.NewJSFunctionBinding(ctx.Registry, jsRef, args, delimiter, true))
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) is defined by js function "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, jsRef := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, binding.NewJSFunctionBinding(ctx.Registry, jsRef, "", "", true))
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) is defined by file "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, path := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, &binding.FileBinding{Path: path, IsLazy: true})
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) is defined by system process "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, cmdline := g[1], g[2]
			parts := strings.Fields(cmdline)
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				if len(parts) == 0 {
					return step, gwenerr.New(gwenerr.SysprocExecution, "empty system process command for %q", name)
				}
				ctx.Registry.Bind(name, &binding.SysprocBinding{Command: parts[0], Args: parts[1:], IsLazy: true})
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) is loaded from (\w+) database "(.*)" query "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, driver, dsn, query := g[1], g[2], g[3], g[4]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ctx.Registry.Bind(name, binding.NewDBLoadStrategy(name, driver, dsn, query))
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		// Resolve a previously-declared binding and capture its value
		// into scope under a (possibly different) name.
		pattern: regexp.MustCompile(`^I capture (.+?) as (.+)$`),
		build: func(g []string) stepctx.Lambda {
			source, as := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				v, err := ctx.Registry.Resolve(source, ctx)
				if err != nil {
					return step, err
				}
				ctx.Scope.Set(as, v)
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) should be "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, want := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				got, ok := ctx.Scope.Get(name)
				if !ok || got != want {
					return step, assertionError(ctx, fmt.Sprintf("%s should be %q, got %q", name, want, got))
				}
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) should not be "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			name, unwanted := g[1], g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				got, _ := ctx.Scope.Get(name)
				if got == unwanted {
					return step, assertionError(ctx, fmt.Sprintf("%s should not be %q", name, unwanted))
				}
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) should be defined$`),
		build: func(g []string) stepctx.Lambda {
			name := g[1]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				if _, ok := ctx.Scope.Get(name); !ok {
					return step, assertionError(ctx, fmt.Sprintf("%s should be defined", name))
				}
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) should not be defined$`),
		build: func(g []string) stepctx.Lambda {
			name := g[1]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				if _, ok := ctx.Scope.Get(name); ok {
					return step, assertionError(ctx, fmt.Sprintf("%s should not be defined", name))
				}
				return step.WithStatus(status.Passed), nil
			}
		},
	},
	{
		pattern: regexp.MustCompile(`^(.+?) should match "(.*)"$`),
		build: func(g []string) stepctx.Lambda {
			expr := g[2]
			return func(parent ast.Node, step ast.Step, ctx *stepctx.Context) (ast.Step, error) {
				ok, err := scriptexpr.EvalBool(expr, ctx.Scope.Get)
				if err != nil {
					return step, gwenerr.Wrap(gwenerr.JSExecution, err, "should-match expression %q failed", expr)
				}
				if !ok {
					return step, assertionError(ctx, fmt.Sprintf("expression %q was not satisfied", expr))
				}
				return step.WithStatus(status.Passed), nil
			}
		},
	},
}

// assertionError raises a hard or soft assertion failure depending on
// the active AssertionMode (§4.G "Failure classification... Assertion
// failures are further split; only hard ones short-circuit siblings").
func assertionError(ctx *stepctx.Context, message string) error {
	if ctx.Config.AssertionMode == "soft" {
		return gwenerr.New(gwenerr.AssertionSoft, message)
	}
	return gwenerr.New(gwenerr.AssertionHard, message)
}

// unitTranslate attempts every built-in pattern in order against text,
// returning the first match's lambda.
func unitTranslate(text string) (stepctx.Lambda, bool) {
	for _, rule := range unitRules {
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			return rule.build(m), true
		}
	}
	return nil, false
}
