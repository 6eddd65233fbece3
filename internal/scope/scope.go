// Package scope implements Gwen's layered key/value Environment (§4.D):
// a stack of named scopes — top, feature, rule, scenario, stepDef-call
// (possibly nested for recursive calls) and table/record — with
// innermost-first visibility. Grounded directly on the teacher's
// internal/object/environment.go (Environment{Outer, Bindings},
// Get/Define/Assign walking Outer, ResetForTCO).
package scope

import "sync"

// Kind names the scope's place in the stack (§4.D).
type Kind string

const (
	KindTop      Kind = "top"
	KindFeature  Kind = "feature"
	KindRule     Kind = "rule"
	KindScenario Kind = "scenario"
	KindStepDef  Kind = "stepDef"
	KindRecord   Kind = "record"
)

// Scope is one layer of the Environment stack. Like the teacher's
// Environment, it carries its own mutex so concurrent feature units can
// each own an independent chain without any shared locking (§5 "The
// EvalContext is owned by exactly one worker. It is never shared.").
type Scope struct {
	Kind   Kind
	Name   string // e.g. the StepDef name for a KindStepDef scope
	outer  *Scope
	values map[string]string
	mu     sync.RWMutex
}

// NewTop creates the root scope of a fresh Environment.
func NewTop() *Scope {
	return &Scope{Kind: KindTop, values: map[string]string{}}
}

// Push returns a new scope layered on top of s.
func (s *Scope) Push(kind Kind, name string) *Scope {
	return &Scope{Kind: kind, Name: name, outer: s, values: map[string]string{}}
}

// Outer returns the scope this one is layered on, or nil at the top.
func (s *Scope) Outer() *Scope { return s.outer }

// Set binds name to value in this scope only.
func (s *Scope) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Get resolves name innermost-first: this scope, then its outer chain.
func (s *Scope) Get(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.outer {
		cur.mu.RLock()
		v, ok := cur.values[name]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return "", false
}

// GetOpt is Get without the ok flag, returning "" when unbound.
func (s *Scope) GetOpt(name string) string {
	v, _ := s.Get(name)
	return v
}

// Clear removes name from this scope only (not the outer chain).
func (s *Scope) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}

// ContainsScope reports whether a scope of the given kind+name exists
// anywhere in the chain from s outward — used by StepDef dispatch to
// detect "recursion without new args" (§4.G "StepDef dispatch").
func (s *Scope) ContainsScope(kind Kind, name string) bool {
	for cur := s; cur != nil; cur = cur.outer {
		if cur.Kind == kind && cur.Name == name {
			return true
		}
	}
	return false
}

// Visible returns a flattened view of every binding visible from s,
// innermost wins on name collision (§4.D "visible").
func (s *Scope) Visible() map[string]string {
	out := map[string]string{}
	// Walk outer-to-inner so inner assignments overwrite outer ones.
	chain := s.chainOuterFirst()
	for _, cur := range chain {
		cur.mu.RLock()
		for k, v := range cur.values {
			out[k] = v
		}
		cur.mu.RUnlock()
	}
	return out
}

func (s *Scope) chainOuterFirst() []*Scope {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.outer {
		chain = append(chain, cur)
	}
	// reverse: chain is currently innermost-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// PopToLevel discards every scope above (and including, when
// inclusive) the first scope of the given kind found in the chain,
// returning the new top of the stack. This backs the "reset(level)"
// discipline of §4.D/§5: a reused EvalContext trims its scope stack
// back down to `feature`, `scenario` or `stepDef` granularity between
// units.
func PopToLevel(s *Scope, kind Kind, inclusive bool) *Scope {
	cur := s
	for cur != nil {
		if cur.Kind == kind {
			if inclusive {
				return cur.outer
			}
			return cur
		}
		cur = cur.outer
	}
	return s
}
