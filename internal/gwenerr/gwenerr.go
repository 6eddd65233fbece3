// Package gwenerr implements the closed error-kind taxonomy of spec §7,
// grounded on the teacher's object.RuntimeError/object.Error pair
// (internal/object/object.go) and its Cause-chaining in
// Environment.ExecuteDeferred.
package gwenerr

import "fmt"

// Kind is the closed set of error kinds from §7.
type Kind string

const (
	Syntax            Kind = "Syntax"
	InvalidTag        Kind = "InvalidTag"
	UndefinedStep     Kind = "UndefinedStep"
	RecursiveStepDef  Kind = "RecursiveStepDef"
	Ambiguous         Kind = "Ambiguous"
	DataTable         Kind = "DataTable"
	UnboundAttribute  Kind = "UnboundAttribute"
	UnboundBinding    Kind = "UnboundBinding"
	MissingJSArgument Kind = "MissingJSArgument"
	JSExecution       Kind = "JSExecution"
	SysprocExecution  Kind = "SysprocExecution"
	IO                Kind = "IO"
	Interpolation     Kind = "Interpolation"
	AssertionHard     Kind = "AssertionHard"
	AssertionSoft     Kind = "AssertionSoft"
	Disabled          Kind = "Disabled"
	Interrupted       Kind = "Interrupted"
	Internal          Kind = "Internal"
)

// Error is Gwen's single error type: every failure raised inside a step
// or collaborator carries a Kind plus an optional Cause, mirroring the
// teacher's RuntimeError{Payload, Cause} chaining.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsAssertion reports whether kind is either assertion variant.
func (k Kind) IsAssertion() bool {
	return k == AssertionHard || k == AssertionSoft
}

// IsSoft reports whether an assertion failure is "soft" (§4.G step 5,
// §7 "Assertion failures are further split; only hard ones short-circuit
// sibling steps").
func IsSoft(err error) bool {
	var e *Error
	if as, ok := err.(*Error); ok {
		e = as
	} else {
		return false
	}
	return e.Kind == AssertionSoft
}

// UnboundAttributeError constructs the UnboundAttribute error named in
// §4.C "Failure mode".
func UnboundAttributeError(name, scope string) *Error {
	return New(UnboundAttribute, "unbound attribute %q in scope %q", name, scope)
}

func UnboundBindingError(name string) *Error {
	return New(UnboundBinding, "no binding registered for %q", name)
}

func MissingJSArgumentError(ref string, idx int) *Error {
	return New(MissingJSArgument, "missing JS argument %d for %q", idx, ref)
}

func RecursiveStepDefError(name string) *Error {
	return New(RecursiveStepDef, "recursive call to StepDef %q without new arguments", name)
}

func AmbiguousDataFileError(dir string, files []string) *Error {
	return New(Ambiguous, "ambiguous data files in %q: %v", dir, files)
}

// InterruptedError marks a unit cancelled by its timeout or a top-level
// SIGINT (§5 "Cancellation & timeouts").
func InterruptedError(reason string) *Error {
	return New(Interrupted, "interrupted: %s", reason)
}
