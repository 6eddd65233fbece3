package ast

// StepDef is a reusable named sequence of steps, matched by the step
// text of its caller (§GLOSSARY). It is declared like a Scenario but
// tagged `@StepDef`, optionally combined with `@ForEach`/`@DataTable`
// (§3 "Reserved tags", §4.G "StepDef dispatch").
type StepDef struct {
	id          string
	ref         SourceRef
	Tags        []Tag
	Keyword     string
	Name        string
	Description string
	Steps       []Step
	// ParamNames are the `$<name>` placeholders this StepDef's name and
	// body steps reference; bound in a fresh parameter scope per call.
	ParamNames []string
	DataTable  *DataTableSpec
}

func NewStepDef(uuid string, ref SourceRef, tags []Tag, keyword, name, description string, steps []Step, paramNames []string) StepDef {
	return StepDef{id: uuid, ref: ref, Tags: tags, Keyword: keyword, Name: name, Description: description, Steps: steps, ParamNames: paramNames}
}

func (d StepDef) UUID() string   { return d.id }
func (d StepDef) Type() NodeType { return NodeStepDef }
func (d StepDef) Ref() SourceRef { return d.ref }

func (d StepDef) IsForEach() bool { return HasTag(d.Tags, TagForEach) }

func (d StepDef) IsSynchronized() bool {
	return HasTag(d.Tags, TagSynchronized) || HasTag(d.Tags, TagSynchronised)
}

func (d StepDef) WithDataTable(spec *DataTableSpec) StepDef {
	d.DataTable = spec
	return d
}
