package scriptexpr

import "testing"

func lookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestArithmetic(t *testing.T) {
	got, err := Eval("1 + 2 * 3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "7" {
		t.Fatalf("got %q, want %q", got, "7")
	}
}

func TestComparisonAgainstBinding(t *testing.T) {
	ok, err := EvalBool("count >= 3", lookup(map[string]string{"count": "5"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected true")
	}
}

func TestLogicalOperators(t *testing.T) {
	ok, err := EvalBool(`status == "passed" && !false`, lookup(map[string]string{"status": "passed"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected true")
	}
}

func TestUnboundIdentifierErrors(t *testing.T) {
	_, err := Eval("missing + 1", nil)
	if err == nil {
		t.Fatal("expected an error for an unbound identifier")
	}
}

func TestStringConcatenation(t *testing.T) {
	got, err := Eval(`"a" + "b"`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func TestParenthesizedPrecedence(t *testing.T) {
	got, err := Eval("(1 + 2) * 3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "9" {
		t.Fatalf("got %q, want %q", got, "9")
	}
}

func TestDollarPrefixedIdentifier(t *testing.T) {
	got, err := Eval("$0 + 1", lookup(map[string]string{"$0": "5"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "6" {
		t.Fatalf("got %q, want %q", got, "6")
	}
}
