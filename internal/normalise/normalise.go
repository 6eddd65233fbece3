// Package normalise implements the Gwen Normaliser (§4.B): outline
// expansion, background replication, nodePath assignment and
// doc-stringification. Normalisation is pure and idempotent — it never
// performs I/O and, re-run on its own output, produces no further
// change (§4.B "Normalisation is pure (no I/O) and idempotent").
//
// Grounded on the teacher's AST-rewriting passes in
// internal/evaluator/module_loader.go (a pure tree-to-tree
// transformation run once after parsing, before evaluation) — the
// closest the teacher comes to a pre-evaluation normalisation stage.
package normalise

import (
	"fmt"
	"strings"

	"github.com/gwen-interpreter/gwen/internal/ast"
	"github.com/gwen-interpreter/gwen/internal/status"
)

// Normalise returns an evaluable copy of spec: outlines expanded,
// backgrounds attached, nodePaths assigned, trailing-literal steps
// doc-stringified (§4.B, in that order).
func Normalise(spec *ast.Spec) *ast.Spec {
	out := *spec

	out.Scenarios = normaliseScenarios(spec.Scenarios, spec.Background)
	rules := make([]ast.Rule, len(spec.Rules))
	for i, r := range spec.Rules {
		bg := r.Background
		if bg == nil {
			bg = spec.Background
		}
		rules[i] = r.WithScenarios(normaliseScenarios(r.Scenarios, bg))
	}
	out.Rules = rules

	assignNodePaths(&out)
	docStringifyTree(&out)
	return &out
}

func normaliseScenarios(scenarios []ast.Scenario, background *ast.Background) []ast.Scenario {
	out := make([]ast.Scenario, len(scenarios))
	for i, sc := range scenarios {
		if sc.IsOutline() {
			out[i] = expandOutline(sc, background)
			continue
		}
		if background != nil {
			bg := background.Copy()
			sc = sc.WithBackground(&bg)
		}
		out[i] = sc
	}
	return out
}

// expandOutline implements §4.B.1/2: one expanded scenario per
// Examples body row, steps rewritten with `<header>` substitution,
// backgrounds replicated by copy (or, for a DataTable-annotated
// outline, a synthetic binding background prepended ahead of the
// ordinary one).
func expandOutline(sc ast.Scenario, background *ast.Background) ast.Scenario {
	isDataTable := ast.HasTag(sc.Tags, ast.TagDataTable)
	newExamples := make([]ast.Examples, len(sc.Examples))

	for ei, ex := range sc.Examples {
		n := len(ex.Rows)
		expanded := make([]ast.Scenario, 0, n)
		for i, row := range ex.Rows {
			params := rowParams(ex.Header, row.Cells)

			steps := make([]ast.Step, len(sc.Steps))
			for si, st := range sc.Steps {
				steps[si] = substituteStep(st, params)
			}

			tags := append(append([]ast.Tag{}, sc.Tags...), ast.NewTag(ast.NewUUID(), ast.SourceRef{}, ast.TagSynthetic, nil))
			name := fmt.Sprintf("%s -- %s (record %d of %d)", sc.Name, ex.Name, i+1, n)

			rec := sc.WithName(name).WithSteps(steps).WithTags(tags).WithParams(params)
			rec.Examples = nil

			bg := outlineBackground(row.Cells, background, isDataTable)
			rec = rec.WithBackground(bg)

			expanded = append(expanded, rec)
		}
		newExamples[ei] = ex.WithScenarios(expanded)
	}
	return sc.WithExamples(newExamples)
}

func rowParams(header, cells []string) map[string]string {
	params := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(cells) {
			params[h] = cells[i]
		}
	}
	return params
}

// outlineBackground builds the background attached to one expanded
// outline scenario. For a plain outline it is simply a copy of the
// parent background. For a DataTable-annotated outline (§4.B.2) a
// synthetic background binds each row cell positionally via synthetic
// `Given` steps with the text `string N is "value"` (N is 1-based),
// placed ahead of the parent background's own steps.
func outlineBackground(cells []string, background *ast.Background, isDataTable bool) *ast.Background {
	if !isDataTable {
		if background == nil {
			return nil
		}
		bg := background.Copy()
		return &bg
	}

	synthSteps := make([]ast.Step, 0, len(cells))
	for i, cell := range cells {
		text := fmt.Sprintf("string %d is %q", i+1, cell)
		step := ast.NewStep(ast.NewUUID(), ast.SourceRef{}, "Given", text)
		step = step.WithStatus(status.Pending)
		synthSteps = append(synthSteps, step)
	}
	if background != nil {
		synthSteps = append(synthSteps, background.Steps...)
	}
	bg := ast.NewBackground(ast.NewUUID(), ast.SourceRef{}, "Background", "", "", synthSteps)
	return &bg
}

// substituteStep rewrites a step's text, table cells and doc-string
// content with the outline record's `<header>` placeholders (§4.B.1).
func substituteStep(st ast.Step, params map[string]string) ast.Step {
	st = st.WithText(substitutePlaceholders(st.Text, params))
	if st.Table != nil {
		rows := make([]ast.TableRow, len(st.Table.Rows))
		for i, row := range st.Table.Rows {
			cells := make([]string, len(row.Cells))
			for j, c := range row.Cells {
				cells[j] = substitutePlaceholders(c, params)
			}
			rows[i] = ast.TableRow{Line: row.Line, Cells: cells}
		}
		t := ast.RawTable{Rows: rows}
		st = st.WithTable(&t)
	}
	if st.DocString != nil {
		d := *st.DocString
		d.Content = substitutePlaceholders(d.Content, params)
		st = st.WithDocString(&d)
	}
	return st
}

func substitutePlaceholders(text string, params map[string]string) string {
	for name, value := range params {
		text = strings.ReplaceAll(text, "<"+name+">", value)
	}
	return text
}

// assignNodePaths walks the tree top-down, assigning "name[occurrence]"
// segments per §4.B.3: occurrence is 1-based among siblings sharing the
// same name under the same parent.
func assignNodePaths(spec *ast.Spec) {
	rootPath := ast.JoinNodePath("", spec.Feature.Name, 1)
	*spec = *spec.WithRef(spec.Ref().WithNodePath(rootPath))

	scenarioNames := make([]string, len(spec.Scenarios))
	for i, sc := range spec.Scenarios {
		scenarioNames[i] = sc.Name
	}
	occ := ast.AssignOccurrences(scenarioNames)
	for i, sc := range spec.Scenarios {
		spec.Scenarios[i] = assignScenarioNodePath(sc, rootPath, occ[i])
	}

	ruleNames := make([]string, len(spec.Rules))
	for i, r := range spec.Rules {
		ruleNames[i] = r.Name
	}
	rocc := ast.AssignOccurrences(ruleNames)
	for i, r := range spec.Rules {
		spec.Rules[i] = assignRuleNodePath(r, rootPath, rocc[i])
	}
}

func assignRuleNodePath(r ast.Rule, parentPath string, occurrence int) ast.Rule {
	path := ast.JoinNodePath(parentPath, r.Name, occurrence)
	r = r.WithRef(r.Ref().WithNodePath(path))

	names := make([]string, len(r.Scenarios))
	for i, sc := range r.Scenarios {
		names[i] = sc.Name
	}
	occ := ast.AssignOccurrences(names)
	for i, sc := range r.Scenarios {
		r.Scenarios[i] = assignScenarioNodePath(sc, path, occ[i])
	}
	return r
}

func assignScenarioNodePath(sc ast.Scenario, parentPath string, occurrence int) ast.Scenario {
	path := ast.JoinNodePath(parentPath, sc.Name, occurrence)
	sc = sc.WithRef(sc.Ref().WithNodePath(path))

	names := make([]string, len(sc.Steps))
	for i, st := range sc.Steps {
		names[i] = st.Text
	}
	occ := ast.AssignOccurrences(names)
	for i, st := range sc.Steps {
		sc.Steps[i] = st.WithRef(st.Ref().WithNodePath(ast.JoinNodePath(path, st.Text, occ[i])))
	}
	return sc
}

// docStringifyTree applies §4.B.4 across every step reachable from
// spec: a step whose text ends in a double-quoted `"$<param>"` literal
// and whose docString is empty has that literal stripped from its
// text and reattached as a synthetic docString of mediaType None.
func docStringifyTree(spec *ast.Spec) {
	for i, sc := range spec.Scenarios {
		spec.Scenarios[i] = docStringifyScenario(sc)
	}
	for i, r := range spec.Rules {
		for j, sc := range r.Scenarios {
			r.Scenarios[j] = docStringifyScenario(sc)
		}
		spec.Rules[i] = r
	}
}

func docStringifyScenario(sc ast.Scenario) ast.Scenario {
	for i, st := range sc.Steps {
		sc.Steps[i] = docStringifyStep(st)
	}
	if sc.Background != nil {
		bg := *sc.Background
		for i, st := range bg.Steps {
			bg.Steps[i] = docStringifyStep(st)
		}
		sc.Background = &bg
	}
	for ei, ex := range sc.Examples {
		for si, rec := range ex.Scenarios {
			ex.Scenarios[si] = docStringifyScenario(rec)
		}
		sc.Examples[ei] = ex
	}
	return sc
}

// docStringifyStep rewrites a step whose text ends in `"$<name>"`.
func docStringifyStep(st ast.Step) ast.Step {
	if st.DocString != nil {
		return st
	}
	text := st.Text
	if !strings.HasSuffix(text, "\"") {
		return st
	}
	start := strings.LastIndex(text, `"$<`)
	if start < 0 {
		return st
	}
	inner := text[start+1 : len(text)-1] // drop surrounding quotes, keep "$<name>"
	if !strings.HasPrefix(inner, "$<") || !strings.HasSuffix(inner, ">") {
		return st
	}
	name := inner[2 : len(inner)-1]
	rest := strings.TrimRight(text[:start], " ")
	d := ast.DocString{Content: name, MediaType: ast.DocStringMediaNone}
	return st.WithText(rest).WithDocString(&d)
}
