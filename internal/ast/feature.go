package ast

// Feature is a named specification composed of scenarios and optional
// rules (§GLOSSARY, §3).
type Feature struct {
	id          string
	ref         SourceRef
	Language    string
	Tags        []Tag
	Keyword     string
	Name        string
	Description string
}

func NewFeature(uuid string, ref SourceRef, language string, tags []Tag, keyword, name, description string) Feature {
	return Feature{id: uuid, ref: ref, Language: language, Tags: tags, Keyword: keyword, Name: name, Description: description}
}

func (f Feature) UUID() string   { return f.id }
func (f Feature) Type() NodeType { return NodeFeature }
func (f Feature) Ref() SourceRef { return f.ref }

// Meta is a file whose sole purpose is to declare StepDefs and
// bindings (§GLOSSARY). It shares Spec's shape (a Meta file is itself
// a restricted Gherkin document) but is tagged distinctly so the
// feature stream and step engine can tell inherited-meta StepDef
// libraries apart from the feature under evaluation.
type Meta struct {
	id    string
	ref   SourceRef
	Name  string
	Spec  *Spec
}

func NewMeta(uuid string, ref SourceRef, name string, spec *Spec) Meta {
	return Meta{id: uuid, ref: ref, Name: name, Spec: spec}
}

func (m Meta) UUID() string   { return m.id }
func (m Meta) Type() NodeType { return NodeMeta }
func (m Meta) Ref() SourceRef { return m.ref }

// Spec is the root of a parsed feature (or meta) file (§3 "Spec nodes"
// table).
type Spec struct {
	id         string
	ref        SourceRef
	Feature    Feature
	Background *Background
	Scenarios  []Scenario
	Rules      []Rule
	StepDefs   []StepDef
	SourceFile string
	MetaSpecs  []*Spec
}

func NewSpec(uuid string, ref SourceRef, feature Feature, background *Background, scenarios []Scenario, rules []Rule, stepDefs []StepDef, sourceFile string) *Spec {
	return &Spec{
		id: uuid, ref: ref, Feature: feature, Background: background,
		Scenarios: scenarios, Rules: rules, StepDefs: stepDefs, SourceFile: sourceFile,
	}
}

func (s *Spec) UUID() string   { return s.id }
func (s *Spec) Type() NodeType { return NodeRoot }
func (s *Spec) Ref() SourceRef { return s.ref }

func (s *Spec) WithRef(ref SourceRef) *Spec {
	cp := *s
	cp.ref = ref
	return &cp
}

// WithScenarios returns a shallow copy of the Spec with Scenarios
// replaced — used by the normaliser once outline expansion has run.
func (s *Spec) WithScenarios(scenarios []Scenario) *Spec {
	cp := *s
	cp.Scenarios = scenarios
	return &cp
}

func (s *Spec) WithRules(rules []Rule) *Spec {
	cp := *s
	cp.Rules = rules
	return &cp
}

// WithMetaSpecs attaches the parsed specs of this unit's inherited
// `.meta` files, in parent-before-child order, so AllStepDefs can walk
// them (§4.F "meta inheritance").
func (s *Spec) WithMetaSpecs(metaSpecs []*Spec) *Spec {
	cp := *s
	cp.MetaSpecs = metaSpecs
	return &cp
}

// AllStepDefs returns this spec's own StepDefs plus every inherited
// meta spec's StepDefs, parent-before-child ordered to match the
// feature stream's meta-inheritance order (§4.F).
func (s *Spec) AllStepDefs() []StepDef {
	var out []StepDef
	for _, m := range s.MetaSpecs {
		out = append(out, m.AllStepDefs()...)
	}
	out = append(out, s.StepDefs...)
	return out
}
