package binding

import (
	"errors"
	"testing"

	"github.com/gwen-interpreter/gwen/internal/gwenerr"
)

type fakeEnv struct {
	values map[string]string
	files  map[string]string
	calls  int
}

func (f *fakeEnv) Lookup(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

func (f *fakeEnv) ReadFile(path string) (string, error) {
	f.calls++
	v, ok := f.files[path]
	if !ok {
		return "", errors.New("no such file")
	}
	return v, nil
}

func (f *fakeEnv) RunSysproc(name string, args []string) (string, error) {
	f.calls++
	return name + " ran", nil
}

func TestValueBindingResolvesConstant(t *testing.T) {
	b := ValueBinding{Value: "hello"}
	v, err := b.Resolve(&fakeEnv{})
	if err != nil || v != "hello" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestJSBindingEvaluatesAgainstEnv(t *testing.T) {
	b := &JSBinding{Source: "count >= 3"}
	v, err := b.Resolve(&fakeEnv{values: map[string]string{"count": "5"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "true" {
		t.Fatalf("got %q, want true", v)
	}
}

func TestJSBindingLazyCachesResult(t *testing.T) {
	calls := 0
	b := &JSBinding{Source: "1 + 1", IsLazy: true}
	env := &fakeEnv{}
	for i := 0; i < 3; i++ {
		v, err := b.Resolve(env)
		if err != nil || v != "2" {
			t.Fatalf("got %q, %v", v, err)
		}
		calls++
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls to Resolve, got %d", calls)
	}
	if !b.cache.cached {
		t.Fatal("expected the cache to record the resolved value")
	}
}

func TestJSFunctionDelegatesAndSplitsArgs(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("greet", &JSBinding{Source: `"hi " + $0`})
	fn := NewJSFunctionBinding(reg, "greet", "world", "", false)
	v, err := fn.Resolve(&fakeEnv{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "hi world" {
		t.Fatalf("got %q, want %q", v, "hi world")
	}
}

func TestJSFunctionMissingRefErrors(t *testing.T) {
	reg := NewRegistry()
	fn := NewJSFunctionBinding(reg, "missing", "", "", false)
	_, err := fn.Resolve(&fakeEnv{})
	if err == nil {
		t.Fatal("expected an error for an unregistered JS reference")
	}
}

func TestFileBindingReadsThroughEnv(t *testing.T) {
	b := &FileBinding{Path: "data.txt"}
	env := &fakeEnv{files: map[string]string{"data.txt": "contents"}}
	v, err := b.Resolve(env)
	if err != nil || v != "contents" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestSysprocBindingTrimsTrailingNewline(t *testing.T) {
	b := &SysprocBinding{Command: "echo"}
	v, err := b.Resolve(&fakeEnv{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "echo ran" {
		t.Fatalf("got %q", v)
	}
}

func TestLoadStrategyRunsLoaderExactlyOnce(t *testing.T) {
	runs := 0
	b := NewLoadStrategyBinding("lookup", func(env Env) (string, error) {
		runs++
		return "loaded", nil
	})
	for i := 0; i < 5; i++ {
		v, err := b.Resolve(&fakeEnv{})
		if err != nil || v != "loaded" {
			t.Fatalf("got %q, %v", v, err)
		}
	}
	if runs != 1 {
		t.Fatalf("expected loader to run exactly once, ran %d times", runs)
	}
}

func TestRegistryResolveUnboundNameErrors(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("nope", &fakeEnv{})
	var gerr *gwenerr.Error
	if !errors.As(err, &gerr) || gerr.Kind != gwenerr.UnboundBinding {
		t.Fatalf("expected UnboundBinding error, got %v", err)
	}
}
