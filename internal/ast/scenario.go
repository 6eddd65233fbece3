package ast

import "github.com/gwen-interpreter/gwen/internal/status"

// Background is steps prepended to every scenario in its scope (§3,
// §GLOSSARY). Background steps are copied (not referenced) into each
// expanded scenario by the normaliser (§3 "Invariants across the tree").
type Background struct {
	id          string
	ref         SourceRef
	Keyword     string
	Name        string
	Description string
	Steps       []Step
}

func NewBackground(uuid string, ref SourceRef, keyword, name, description string, steps []Step) Background {
	return Background{id: uuid, ref: ref, Keyword: keyword, Name: name, Description: description, Steps: steps}
}

func (b Background) UUID() string   { return b.id }
func (b Background) Type() NodeType { return NodeBackground }
func (b Background) Ref() SourceRef { return b.ref }

func (b Background) WithSteps(steps []Step) Background {
	b.Steps = steps
	return b
}

// Copy returns a deep-enough copy suitable for replication into an
// expanded outline scenario: a new backing slice for Steps so later
// per-record mutation of one copy never leaks into another (§3
// "Background steps are copied into each expanded scenario").
func (b Background) Copy() Background {
	cp := b
	cp.Steps = append([]Step{}, b.Steps...)
	return cp
}

// TableRowSpec is one body row of an Examples table (§3).
type TableRowSpec struct {
	Line  int
	Cells []string
}

// Examples is one `Examples:` table attached to an outline scenario
// (§3, §GLOSSARY).
type Examples struct {
	id          string
	ref         SourceRef
	Tags        []Tag
	Keyword     string
	Name        string
	Description string
	Header      []string
	Rows        []TableRowSpec
	// Scenarios holds the expanded scenarios produced by the
	// normaliser from this Examples table, one per row (§4.B.1).
	Scenarios []Scenario
}

func NewExamples(uuid string, ref SourceRef, tags []Tag, keyword, name, description string, header []string, rows []TableRowSpec) Examples {
	return Examples{id: uuid, ref: ref, Tags: tags, Keyword: keyword, Name: name, Description: description, Header: header, Rows: rows}
}

func (e Examples) UUID() string   { return e.id }
func (e Examples) Type() NodeType { return NodeExamples }
func (e Examples) Ref() SourceRef { return e.ref }

func (e Examples) WithScenarios(scenarios []Scenario) Examples {
	e.Scenarios = scenarios
	return e
}

// Scenario is an ordered sequence of steps (§GLOSSARY); an outline
// scenario additionally carries non-empty Examples and does not
// execute its own Steps directly (§3 "Invariants across the tree").
type Scenario struct {
	id           string
	ref          SourceRef
	Tags         []Tag
	Keyword      string
	Name         string
	Description  string
	Background   *Background
	Steps        []Step
	Examples     []Examples
	Params       map[string]string // outline record params, "" for non-outline scenarios
	CallerParams map[string]string
	EvalStatus   status.Status
}

func NewScenario(uuid string, ref SourceRef, tags []Tag, keyword, name, description string, background *Background, steps []Step, examples []Examples) Scenario {
	return Scenario{
		id: uuid, ref: ref, Tags: tags, Keyword: keyword, Name: name,
		Description: description, Background: background, Steps: steps,
		Examples: examples, EvalStatus: status.Pending,
	}
}

func (s Scenario) UUID() string   { return s.id }
func (s Scenario) Type() NodeType { return NodeScenario }
func (s Scenario) Ref() SourceRef { return s.ref }

func (s Scenario) IsOutline() bool { return len(s.Examples) > 0 }

func (s Scenario) IsStepDef() bool { return HasTag(s.Tags, TagStepDef) }

func (s Scenario) WithRef(ref SourceRef) Scenario {
	s.ref = ref
	return s
}

func (s Scenario) WithName(name string) Scenario {
	s.Name = name
	return s
}

func (s Scenario) WithSteps(steps []Step) Scenario {
	s.Steps = steps
	return s
}

func (s Scenario) WithBackground(bg *Background) Scenario {
	s.Background = bg
	return s
}

func (s Scenario) WithTags(tags []Tag) Scenario {
	s.Tags = tags
	return s
}

func (s Scenario) WithParams(params map[string]string) Scenario {
	s.Params = params
	return s
}

func (s Scenario) WithStatus(st status.Status) Scenario {
	s.EvalStatus = st
	return s
}

func (s Scenario) WithExamples(examples []Examples) Scenario {
	s.Examples = examples
	return s
}

// AllSteps returns the steps that actually execute for this scenario:
// background steps (if any) followed by its own steps. Outline
// scenarios only reach here once expanded — the outline shell itself
// is never evaluated directly.
func (s Scenario) AllSteps() []Step {
	if s.Background == nil {
		return s.Steps
	}
	out := make([]Step, 0, len(s.Background.Steps)+len(s.Steps))
	out = append(out, s.Background.Steps...)
	out = append(out, s.Steps...)
	return out
}

// Rule groups scenarios sharing additional context (§GLOSSARY).
type Rule struct {
	id          string
	ref         SourceRef
	Keyword     string
	Name        string
	Description string
	Background  *Background
	Scenarios   []Scenario
}

func NewRule(uuid string, ref SourceRef, keyword, name, description string, background *Background, scenarios []Scenario) Rule {
	return Rule{id: uuid, ref: ref, Keyword: keyword, Name: name, Description: description, Background: background, Scenarios: scenarios}
}

func (r Rule) UUID() string   { return r.id }
func (r Rule) Type() NodeType { return NodeRule }
func (r Rule) Ref() SourceRef { return r.ref }

func (r Rule) WithScenarios(scenarios []Scenario) Rule {
	r.Scenarios = scenarios
	return r
}

func (r Rule) WithRef(ref SourceRef) Rule {
	r.ref = ref
	return r
}
