// Package ast defines Gwen's immutable Gherkin spec-node model: the
// tagged sum of node kinds described in spec §3, their "with-copy"
// value semantics (§9 "Immutable AST with with-copies"), and the
// nodePath/occurrence machinery shared across all of them.
//
// Gwen never parses Gherkin source itself — the tokeniser/parser is an
// explicit collaborator (§1 "out of scope") — so this package only
// models the tree a Cucumber-compatible Gherkin parser would hand us,
// plus the StepDef/Unit/Meta extensions Gwen itself owns.
package ast

import "github.com/gwen-interpreter/gwen/internal/status"

// NodeType is the closed set of kinds a spec node can carry (§3).
type NodeType string

const (
	NodeRoot       NodeType = "Root"
	NodeFeature    NodeType = "Feature"
	NodeMeta       NodeType = "Meta"
	NodeBackground NodeType = "Background"
	NodeRule       NodeType = "Rule"
	NodeScenario   NodeType = "Scenario"
	NodeStepDef    NodeType = "StepDef"
	NodeExamples   NodeType = "Examples"
	NodeStep       NodeType = "Step"
	NodeTag        NodeType = "Tag"
	NodeUnit       NodeType = "Unit"
)

// Node is implemented by every spec-tree element. occurrenceIn/nodePath
// behaviours are free functions (below) dispatching on Type(), per the
// design note "tagged variants over inheritance" (§9) — this keeps the
// node structs themselves plain data, matching the teacher's closed
// ObjectType string-enum style (internal/object/object.go) rather than
// an OO node hierarchy.
type Node interface {
	UUID() string
	Type() NodeType
	Ref() SourceRef
}

// Reserved tag names (closed set, §3 "Reserved tags").
const (
	TagStepDef      = "StepDef"
	TagForEach      = "ForEach"
	TagIf           = "If"
	TagUntil        = "Until"
	TagWhile        = "While"
	TagDataTable    = "DataTable"
	TagExamples     = "Examples"
	TagSynthetic    = "Synthetic"
	TagSynchronized = "Synchronized"
	TagSynchronised = "Synchronised"
	TagIgnore       = "Ignore"
)

// EvalStatus reports a node's own or derived evaluation status. Steps
// carry their own; everything else derives from children, computed by
// the step engine/normaliser as evaluation proceeds and stored back via
// the With-copy produced for that node (§3 "A node's evalStatus").
type EvalStatus = status.Status
