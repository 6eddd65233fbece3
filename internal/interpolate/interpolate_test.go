package interpolate

import (
	"strings"
	"testing"
)

func mapLookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestS1NestedPropertyInnermostFirst(t *testing.T) {
	props := mapLookup(map[string]string{"b": "0", "a-0": "world"})
	got, err := Interpolate("hello ${a-${b}}", props, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestS2ParamAndPropertyMixed(t *testing.T) {
	params := mapLookup(map[string]string{"p": "1"})
	props := mapLookup(map[string]string{"q": "2"})
	got, err := Interpolate("x $<p> ${q}", props, params, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "x 1 2" {
		t.Fatalf("got %q, want %q", got, "x 1 2")
	}
}

func TestS2DryRunNoLookup(t *testing.T) {
	got, err := Interpolate("x $<p> ${q}", nil, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "x $[param:p] ${q}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFullInterpolationErrorsOnUnboundProperty(t *testing.T) {
	_, err := Interpolate("${missing}", mapLookup(nil), nil, false)
	if err == nil {
		t.Fatal("expected UnboundAttribute error")
	}
}

func TestFullInterpolationErrorsOnUnboundParam(t *testing.T) {
	_, err := Interpolate("$<missing>", nil, mapLookup(nil), false)
	if err == nil {
		t.Fatal("expected UnboundAttribute error")
	}
}

func TestIdempotence(t *testing.T) {
	props := mapLookup(map[string]string{"a": "1", "b": "2"})
	params := mapLookup(map[string]string{"p": "x"})
	once, err := Interpolate("${a}-${b}-$<p>", props, params, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(once, "${") || strings.Contains(once, "$<") {
		t.Fatalf("expected no unresolved placeholders, got %q", once)
	}
	twice, err := Interpolate(once, props, params, false)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if twice != once {
		t.Fatalf("second pass was not a no-op: %q != %q", twice, once)
	}
}

func TestInterpolateParamsLeavesPropertiesUntouched(t *testing.T) {
	params := mapLookup(map[string]string{"p": "1"})
	got, err := InterpolateParams("x $<p> ${q}", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "x 1 ${q}" {
		t.Fatalf("got %q, want %q", got, "x 1 ${q}")
	}
}

func TestInterpolateParamsSkipsCompositeParamInsteadOfErroring(t *testing.T) {
	got, err := InterpolateParams("$<${q}>", mapLookup(nil))
	if err != nil {
		t.Fatalf("expected skip, not error, got %v", err)
	}
	if got != "$<${q}>" {
		t.Fatalf("got %q, want composite placeholder left as-is", got)
	}
}

func TestInterpolateParamsErrorsOnConcreteMissingParam(t *testing.T) {
	_, err := InterpolateParams("$<missing>", mapLookup(nil))
	if err == nil {
		t.Fatal("expected UnboundAttribute error for a concrete missing param")
	}
}

func TestPlusBeforeDigitPreservedVerbatim(t *testing.T) {
	got, err := Interpolate(`"+1 day"`, nil, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `"+1 day"` {
		t.Fatalf("got %q, want the literal preserved verbatim", got)
	}
}

func TestDeterminism(t *testing.T) {
	props := mapLookup(map[string]string{"a": "1"})
	first, _ := Interpolate("${a}-${a}-${a}", props, nil, false)
	for i := 0; i < 10; i++ {
		again, err := Interpolate("${a}-${a}-${a}", props, nil, false)
		if err != nil || again != first {
			t.Fatalf("non-deterministic output: %q vs %q", again, first)
		}
	}
}
