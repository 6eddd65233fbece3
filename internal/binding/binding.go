// Package binding implements Gwen's pluggable binding resolvers (§4.E):
// Value, JS, JSFunction, File, Sysproc and LoadStrategy. Each resolves
// to a string, persists under deterministic scope keys, and supports
// lazy caching (resolve once, then serve the cached value). Grounded
// on the teacher's pluggable-collaborator pattern in
// internal/foreign/ffi_registry.go (a map of names to callables looked
// up at dispatch time rather than hard-wired into the evaluator) and
// its filesystem/DB/sysproc foreign functions (slug_io_fs.go,
// slug_io_db.go, slug_sys.go), which this package's File, Sysproc and
// LoadStrategy resolvers generalise from "foreign function callable
// from script" to "binding resolvable during step interpolation".
package binding

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/gwen-interpreter/gwen/internal/gwenerr"
	"github.com/gwen-interpreter/gwen/internal/scriptexpr"
)

// Kind is one of the six binding types named in §4.E.
type Kind string

const (
	KindValue        Kind = "Value"
	KindJS           Kind = "JS"
	KindJSFunction   Kind = "JSFunction"
	KindFile         Kind = "File"
	KindSysproc      Kind = "Sysproc"
	KindLoadStrategy Kind = "LoadStrategy"
)

// Binding is the capability every concrete binding type implements:
// resolve to a string, report its own kind, and report whether it
// should be cached after first resolution (§4.E "Lazy-load bindings
// cache results on first resolve").
type Binding interface {
	Kind() Kind
	Lazy() bool
	Resolve(env Env) (string, error)
}

// Env is what a Binding needs from its caller to resolve: a name
// lookup into the current scope (used for JS identifier resolution
// and for composing JSFunction/Sysproc arguments) and a file reader
// for the File binding. Satisfied by scope.Scope plus a small adapter
// in the step engine; kept narrow here so this package never imports
// scope directly (§4.E bindings are a leaf collaborator, not a scope
// owner).
type Env interface {
	Lookup(name string) (string, bool)
	ReadFile(path string) (string, error)
	RunSysproc(name string, args []string) (stdout string, err error)
}

// cache backs the "resolve once" behaviour shared by every lazy
// binding kind.
type cache struct {
	mu     sync.Mutex
	value  string
	cached bool
}

// get runs resolve, caching its result when lazy is true so a second
// call returns the cached value instead of re-resolving (§4.E
// "Lazy-load bindings cache results on first resolve").
func (c *cache) get(lazy bool, resolve func() (string, error)) (string, error) {
	if !lazy {
		return resolve()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached {
		return c.value, nil
	}
	v, err := resolve()
	if err != nil {
		return "", err
	}
	c.value, c.cached = v, true
	return v, nil
}

// ValueBinding resolves to a fixed literal; it is never lazy because
// there is nothing to defer.
type ValueBinding struct {
	Value string
}

func (ValueBinding) Kind() Kind { return KindValue }
func (ValueBinding) Lazy() bool { return false }
func (b ValueBinding) Resolve(Env) (string, error) { return b.Value, nil }

// JSBinding evaluates a script expression (§4.E "JS") through the
// scriptexpr engine, resolving bare identifiers against Env.Lookup so
// a condition like `count >= 3` sees the same names `${count}`
// interpolation would.
type JSBinding struct {
	Source string
	IsLazy bool
	cache  cache
}

func (b *JSBinding) Kind() Kind { return KindJS }
func (b *JSBinding) Lazy() bool { return b.IsLazy }
func (b *JSBinding) Resolve(env Env) (string, error) {
	return b.cache.get(b.IsLazy, func() (string, error) {
		v, err := scriptexpr.Eval(b.Source, env.Lookup)
		if err != nil {
			return "", gwenerr.Wrap(gwenerr.JSExecution, err, "JS binding failed")
		}
		return v, nil
	})
}

// JSFunctionBinding delegates to a named JS binding, composing its
// call arguments by splitting Args on Delimiter when one is set (§4.E
// "JSFunction stores name/function/jsRef, …/args, …/delimiter…
// composes arguments (splitting args by delimiter when present), and
// delegates (e.g. JSFunction → JS)"). The referenced JS binding must
// already be registered in the same Registry.
type JSFunctionBinding struct {
	JSRef     string
	Args      string
	Delimiter string
	IsLazy    bool
	registry  *Registry
	cache     cache
}

func (b *JSFunctionBinding) Kind() Kind { return KindJSFunction }
func (b *JSFunctionBinding) Lazy() bool { return b.IsLazy }
func (b *JSFunctionBinding) Resolve(env Env) (string, error) {
	return b.cache.get(b.IsLazy, func() (string, error) {
		target, ok := b.registry.Lookup(b.JSRef)
		if !ok {
			return "", gwenerr.New(gwenerr.MissingJSArgument, "JSFunction %q references unbound JS binding %q", b.JSRef, b.JSRef)
		}
		args := splitArgs(b.Args, b.Delimiter)
		scoped := argScopedEnv{Env: env, args: args}
		return target.Resolve(scoped)
	})
}

func splitArgs(args, delimiter string) []string {
	if args == "" {
		return nil
	}
	if delimiter == "" {
		return []string{args}
	}
	return strings.Split(args, delimiter)
}

// argScopedEnv overlays a JSFunction call's positional arguments
// (exposed as "$0", "$1", …) onto the caller's Env, so the delegated
// JS binding can read them via the same Lookup path as any other
// identifier.
type argScopedEnv struct {
	Env
	args []string
}

func (e argScopedEnv) Lookup(name string) (string, bool) {
	for i, a := range e.args {
		if name == "$"+strconv.Itoa(i) {
			return a, true
		}
	}
	return e.Env.Lookup(name)
}

// FileBinding resolves to the contents of a file, read through Env so
// the step engine controls filesystem access (§4.E generalises the
// teacher's slug.io.fs.readFile foreign function into a binding kind).
type FileBinding struct {
	Path   string
	IsLazy bool
	cache  cache
}

func (b *FileBinding) Kind() Kind { return KindFile }
func (b *FileBinding) Lazy() bool { return b.IsLazy }
func (b *FileBinding) Resolve(env Env) (string, error) {
	return b.cache.get(b.IsLazy, func() (string, error) {
		v, err := env.ReadFile(b.Path)
		if err != nil {
			return "", gwenerr.Wrap(gwenerr.IO, err, "File binding failed to read %q", b.Path)
		}
		return v, nil
	})
}

// SysprocBinding resolves to the trimmed stdout of an external
// process, generalising the teacher's process-execution foreign
// functions (slug.sys.*) into a binding kind.
type SysprocBinding struct {
	Command string
	Args    []string
	IsLazy  bool
	cache   cache
}

func (b *SysprocBinding) Kind() Kind { return KindSysproc }
func (b *SysprocBinding) Lazy() bool { return b.IsLazy }
func (b *SysprocBinding) Resolve(env Env) (string, error) {
	return b.cache.get(b.IsLazy, func() (string, error) {
		out, err := env.RunSysproc(b.Command, b.Args)
		if err != nil {
			return "", gwenerr.Wrap(gwenerr.SysprocExecution, err, "sysproc %q failed", b.Command)
		}
		return strings.TrimRight(out, "\n"), nil
	})
}

// LoadStrategy resolves by running a loader function once and caching
// its result — the abstraction a data-source binding (e.g. a DB
// lookup table keyed by a StepDef's @LoadStrategy(db=...) tag) sits
// behind; it is always lazy, since running the loader twice would
// defeat its purpose.
type LoadStrategyBinding struct {
	Name   string
	Loader func(env Env) (string, error)
	cache  cache
}

// NewLoadStrategyBinding constructs a binding whose loader runs at
// most once, regardless of how many times Resolve is called.
func NewLoadStrategyBinding(name string, loader func(env Env) (string, error)) *LoadStrategyBinding {
	return &LoadStrategyBinding{Name: name, Loader: loader}
}

func (b *LoadStrategyBinding) Kind() Kind { return KindLoadStrategy }
func (b *LoadStrategyBinding) Lazy() bool { return true }
func (b *LoadStrategyBinding) Resolve(env Env) (string, error) {
	return b.cache.get(true, func() (string, error) {
		if b.Loader == nil {
			return "", gwenerr.New(gwenerr.Internal, "LoadStrategy %q has no loader", b.Name)
		}
		return b.Loader(env)
	})
}

// Registry stores named bindings, keyed exactly as the step engine
// binds them during StepDef dispatch (§4.E "Each binding persists
// under deterministic keys in the scope").
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: map[string]Binding{}}
}

func (r *Registry) Bind(name string, b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[name] = b
}

func (r *Registry) Lookup(name string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[name]
	return b, ok
}

// Resolve looks up name and resolves it, surfacing UnboundBindingError
// when nothing is registered under that name (§4.E "Failure kinds").
func (r *Registry) Resolve(name string, env Env) (string, error) {
	b, ok := r.Lookup(name)
	if !ok {
		return "", gwenerr.UnboundBindingError(name)
	}
	return b.Resolve(env)
}

// NewJSFunctionBinding wires a JSFunctionBinding to the registry it
// will delegate through; kept as a constructor rather than a public
// field so callers can't build one with a nil registry.
func NewJSFunctionBinding(registry *Registry, jsRef, args, delimiter string, lazy bool) *JSFunctionBinding {
	return &JSFunctionBinding{JSRef: jsRef, Args: args, Delimiter: delimiter, IsLazy: lazy, registry: registry}
}

// DefaultSysprocRunner executes name with args via os/exec, returning
// combined stdout (stderr is discarded), the straightforward adaptation
// of the teacher's process-foreign-function intent without the
// teacher's in-language actor/channel plumbing this module doesn't need.
func DefaultSysprocRunner(name string, args []string) (string, error) {
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}
