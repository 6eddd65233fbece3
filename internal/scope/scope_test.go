package scope

import "testing"

func TestInnermostFirstVisibility(t *testing.T) {
	top := NewTop()
	top.Set("a", "top-a")
	feature := top.Push(KindFeature, "")
	feature.Set("a", "feature-a")
	scenario := feature.Push(KindScenario, "")

	v, ok := scenario.Get("a")
	if !ok || v != "feature-a" {
		t.Fatalf("expected innermost binding feature-a, got %q ok=%v", v, ok)
	}
}

func TestClearOnlyAffectsOwnScope(t *testing.T) {
	top := NewTop()
	top.Set("x", "1")
	inner := top.Push(KindScenario, "")
	inner.Set("x", "2")
	inner.Clear("x")

	v, ok := inner.Get("x")
	if !ok || v != "1" {
		t.Fatalf("expected outer binding to remain visible after clearing inner, got %q ok=%v", v, ok)
	}
}

func TestContainsScopeDetectsRecursion(t *testing.T) {
	top := NewTop()
	call := top.Push(KindStepDef, "I log in")
	if !call.ContainsScope(KindStepDef, "I log in") {
		t.Fatal("expected to find the stepDef call scope itself")
	}
	if call.ContainsScope(KindStepDef, "I log out") {
		t.Fatal("did not expect to find an unrelated stepDef scope")
	}
}

func TestPopToLevel(t *testing.T) {
	top := NewTop()
	feature := top.Push(KindFeature, "")
	scenario := feature.Push(KindScenario, "")
	call := scenario.Push(KindStepDef, "foo")

	back := PopToLevel(call, KindFeature, false)
	if back != feature {
		t.Fatalf("expected PopToLevel to land on the feature scope")
	}
}

func TestVisibleFlattensWithInnermostWinning(t *testing.T) {
	top := NewTop()
	top.Set("a", "1")
	top.Set("b", "2")
	inner := top.Push(KindScenario, "")
	inner.Set("a", "override")

	visible := inner.Visible()
	if visible["a"] != "override" || visible["b"] != "2" {
		t.Fatalf("unexpected visible map: %v", visible)
	}
}
