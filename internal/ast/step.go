package ast

import "github.com/gwen-interpreter/gwen/internal/status"

// Attachment is a named file captured during step evaluation (§3
// "Step" essential attributes; §4.G step 6 "Finalise").
type Attachment struct {
	Name string
	File string
}

// Step is a single Given/When/Then/And/But line (§3, §GLOSSARY).
// Value-typed with With-copy updates (§9): evaluation never mutates a
// Step in place, it produces a new one via WithStatus/WithAttachments/
// etc. and the caller threads the replacement back into its parent.
type Step struct {
	id          string
	ref         SourceRef
	Keyword     string
	Text        string
	Attachments []Attachment
	StepDefName string // name of the bound StepDef, if translation resolved one ("" otherwise)
	Table       *RawTable
	DocString   *DocString
	EvalStatus  status.Status
	Params      map[string]string // this step's own $<name> bindings, when it is itself a StepDef body step
	CallerParams map[string]string // params inherited from the caller context
	ErrorMessage string
	// Nested holds the evaluated body steps of a StepDef call or
	// composite (if/while/until/for-each) dispatched by this step, so
	// errorTrails can walk root-to-leaf across call boundaries (§4.A).
	Nested []Step
}

func NewStep(uuid string, ref SourceRef, keyword, text string) Step {
	return Step{id: uuid, ref: ref, Keyword: keyword, Text: text, EvalStatus: status.Pending}
}

func (s Step) UUID() string   { return s.id }
func (s Step) Type() NodeType { return NodeStep }
func (s Step) Ref() SourceRef { return s.ref }

func (s Step) WithRef(ref SourceRef) Step {
	s.ref = ref
	return s
}

func (s Step) WithText(text string) Step {
	s.Text = text
	return s
}

func (s Step) WithStatus(st status.Status) Step {
	s.EvalStatus = st
	return s
}

func (s Step) WithError(st status.Status, message string) Step {
	s.EvalStatus = st
	s.ErrorMessage = message
	return s
}

func (s Step) WithAttachments(attachments []Attachment) Step {
	s.Attachments = attachments
	return s
}

func (s Step) AddAttachment(a Attachment) Step {
	s.Attachments = append(append([]Attachment{}, s.Attachments...), a)
	return s
}

func (s Step) WithTable(t *RawTable) Step {
	s.Table = t
	return s
}

func (s Step) WithDocString(d *DocString) Step {
	s.DocString = d
	return s
}

func (s Step) WithCallerParams(params map[string]string) Step {
	s.CallerParams = params
	return s
}

func (s Step) WithStepDefName(name string) Step {
	s.StepDefName = name
	return s
}

func (s Step) WithNested(nested []Step) Step {
	s.Nested = nested
	return s
}

// FullText returns the text that should be matched against StepDef
// names / composite translators: the step's keyword is not part of
// matching, only its text (Gherkin keywords are syntactic sugar).
func (s Step) FullText() string {
	return s.Text
}
