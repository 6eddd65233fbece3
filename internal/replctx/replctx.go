// Package replctx implements Gwen's reusable EvalContext for
// interactive use (§5 "the Environment is owned by a single evaluation
// context per FeatureUnit and is either (a) created and closed
// per-unit, or (b) reused across units when the caller supplies one
// (REPL mode) — in which case it is reset(featureLevel) before each
// unit"). The REPL's read/print loop itself is an out-of-scope
// collaborator (§1 "the REPL"); this package only owns the seam that
// collaborator drives: hold one stepengine.Engine open across many
// units instead of building a fresh one per unit, and reset it between
// them at the configured state level.
//
// Grounded on the teacher's internal/svc/repl/session.go: a Repl actor
// holding one long-lived request/response loop across lexer, parser
// and evaluator services, generalised here from "one session actor
// forwarding to three collaborator services" to "one session struct
// reusing a single engine across however many units the REPL drives
// into it".
package replctx

import (
	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/binding"
	"github.com/gwen-interpreter/gwen/internal/config"
	"github.com/gwen-interpreter/gwen/internal/eventbus"
	"github.com/gwen-interpreter/gwen/internal/normalise"
	"github.com/gwen-interpreter/gwen/internal/stepengine"
)

// Session owns one long-lived stepengine.Engine, reset between units
// rather than rebuilt, so a StepDefs library loaded once stays resident
// for every unit the REPL evaluates through it (§5 "StepDefs library is
// loaded once per shared context (REPL) or per unit (batch)").
type Session struct {
	cfg    config.Configuration
	engine *stepengine.Engine
}

// NewSession builds a Session around a fresh Engine. registry and bus
// are owned by the Session for its whole lifetime, unlike the launcher's
// one-Registry-one-Bus-per-unit discipline (§4.I) — a REPL session has
// exactly one worker (the person typing), so there is nothing for it to
// share state with.
func NewSession(cfg config.Configuration, registry *binding.Registry, bus *eventbus.Bus) *Session {
	return &Session{cfg: cfg, engine: stepengine.New(cfg, registry, bus)}
}

// LoadStepDefs installs the session's StepDefs library once; later
// units reuse it until the caller loads a different one (e.g. after the
// REPL user `:load`s a new meta file).
func (s *Session) LoadStepDefs(stepDefs []ast.StepDef) {
	s.engine.LoadStepDefs(stepDefs)
}

// EvaluateUnit normalises and evaluates one unit's Spec against the
// session's resident engine, then resets the engine at the configured
// state level before returning (§4.D "a state level setting controls
// which scopes are discarded on reset").
func (s *Session) EvaluateUnit(u ast.Unit, spec *ast.Spec) *ast.Spec {
	spec = normalise.Normalise(spec)
	if u.HasDataRecord() {
		s.engine.SetUnitData(u.DataRecord)
	} else {
		s.engine.SetUnitData(nil)
	}
	out := s.engine.EvaluateSpec(spec)
	s.engine.ResetBetweenUnits(s.cfg.StateLevel == config.StateStepDef)
	return out
}

// Engine exposes the session's resident engine, e.g. for a REPL
// front-end that wants to seed an ad-hoc binding before the next
// EvaluateUnit call.
func (s *Session) Engine() *stepengine.Engine { return s.engine }
