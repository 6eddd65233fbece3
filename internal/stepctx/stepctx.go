// Package stepctx holds the shared evaluation-time types the step
// engine and the composite lambdas both need — Context, Lambda and the
// recursive evaluation callback — kept in their own package so
// internal/composite can build lambdas without importing
// internal/stepengine (which imports internal/composite to dispatch
// them).
//
// Grounded on the teacher's pairing of an Evaluator-owned env stack
// (internal/evaluator/evaluator.go's PushEnv/CurrentEnv/PopEnv) with
// internal/object/environment.go's per-environment bindings map — here
// a single Context plays both roles, since Gwen's step engine has no
// separate "evaluator struct vs. environment struct" split to preserve.
package stepctx

import (
	"os"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/scope"
)

// EvalFunc lets a composite lambda recurse back into the engine to
// evaluate a body/doStep, without depending on the engine's package.
type EvalFunc func(parent ast.Node, step ast.Step, ctx *Context) (ast.Step, error)

// Lambda is the translate step's product (§4.G step 4): a function
// that executes a translated step against ctx and returns its
// evaluated form.
type Lambda func(parent ast.Node, step ast.Step, ctx *Context) (ast.Step, error)

// Context is the EvalContext of §GLOSSARY: "a worker-owned bundle of
// scopes, bindings, behaviour stack, and attachment queue". Exactly
// one worker ever touches a given Context (§5 "The EvalContext is
// owned by exactly one worker. It is never shared.").
type Context struct {
	Scope    *scope.Scope
	Config   config.Configuration
	Registry *binding.Registry
	Bus      *eventbus.Bus
	StepDefs map[string]ast.StepDef

	// CallChain is the ordered stack of ancestor nodes from Root to the
	// node currently evaluating, handed to the event bus on every
	// Before/After publish (§4.J).
	CallChain []ast.Node

	FileReader    func(path string) (string, error)
	SysprocRunner func(name string, args []string) (string, error)

	Eval EvalFunc

	pendingAttachments []ast.Attachment
}

// New builds a Context with its top scope and sane I/O defaults,
// ready to have StepDefs populated and Eval wired by its owner.
func New(cfg config.Configuration, registry *binding.Registry, bus *eventbus.Bus) *Context {
	return &Context{
		Scope:         scope.NewTop(),
		Config:        cfg,
		Registry:      registry,
		Bus:           bus,
		StepDefs:      map[string]ast.StepDef{},
		FileReader:    func(path string) (string, error) { b, err := os.ReadFile(path); return string(b), err },
		SysprocRunner: binding.DefaultSysprocRunner,
	}
}

// Lookup, ReadFile and RunSysproc satisfy binding.Env, so every
// Binding resolves directly against the active scope and this
// Context's pluggable I/O (§4.E).
func (c *Context) Lookup(name string) (string, bool) { return c.Scope.Get(name) }
func (c *Context) ReadFile(path string) (string, error) {
	return c.FileReader(path)
}
func (c *Context) RunSysproc(name string, args []string) (string, error) {
	return c.SysprocRunner(name, args)
}

// PushScope and PopScope thread the Environment's scope stack (§4.D)
// through translation and execution of composite/StepDef bodies.
func (c *Context) PushScope(kind scope.Kind, name string) {
	c.Scope = c.Scope.Push(kind, name)
}

func (c *Context) PopScope() {
	if outer := c.Scope.Outer(); outer != nil {
		c.Scope = outer
	}
}

// PushCall and PopCall maintain CallChain around a node's evaluation
// so the event bus can report the full ancestor stack with every
// event (§4.J "callChain ... ordered stack of ancestor nodes").
func (c *Context) PushCall(n ast.Node) { c.CallChain = append(c.CallChain, n) }
func (c *Context) PopCall() {
	if len(c.CallChain) > 0 {
		c.CallChain = c.CallChain[:len(c.CallChain)-1]
	}
}

// AddAttachment queues an attachment produced by a binding/translator
// mid-step, moved onto the finalised Step during the engine's
// "Finalise" stage (§4.G step 6).
func (c *Context) AddAttachment(a ast.Attachment) {
	c.pendingAttachments = append(c.pendingAttachments, a)
}

// DrainAttachments returns and clears every attachment queued since
// the last drain.
func (c *Context) DrainAttachments() []ast.Attachment {
	out := c.pendingAttachments
	c.pendingAttachments = nil
	return out
}
