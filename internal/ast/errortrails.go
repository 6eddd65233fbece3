package ast

import "github.com/gwen-interpreter/gwen/internal/status"

// ErrorTrail is the root-to-leaf Step sequence ending in a failing
// step, used by reporters to render the call chain behind a failure
// (§4.A "errorTrails").
type ErrorTrail []Step

// ErrorTrails walks a scenario's evaluated steps (including nested
// StepDef-call/composite bodies) and returns one trail per failing
// leaf step. A step is a leaf for this purpose when it has no Nested
// children, or when none of its Nested children are themselves
// failing (the step's own failure, not a propagated child failure, is
// what the trail should end on).
func ErrorTrails(steps []Step) []ErrorTrail {
	var trails []ErrorTrail
	for _, s := range steps {
		trails = append(trails, walkTrail(nil, s)...)
	}
	return trails
}

func walkTrail(prefix []Step, s Step) []ErrorTrail {
	path := append(append([]Step{}, prefix...), s)

	var childTrails []ErrorTrail
	for _, child := range s.Nested {
		childTrails = append(childTrails, walkTrail(path, child)...)
	}
	if len(childTrails) > 0 {
		return childTrails
	}
	if s.EvalStatus == status.Failed {
		return []ErrorTrail{ErrorTrail(path)}
	}
	return nil
}
