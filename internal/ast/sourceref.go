package ast

import (
	"fmt"
	"regexp"
	"strings"
)

// SourceRef locates a node in its originating file. NodePath is derived
// by the normaliser once the full tree is known (§4.B "NodePath
// assignment") and is empty until then.
type SourceRef struct {
	URI      string
	Line     int
	Column   int
	NodePath string
}

func (s SourceRef) String() string {
	if s.NodePath != "" {
		return fmt.Sprintf("%s:%d:%d (%s)", s.URI, s.Line, s.Column, s.NodePath)
	}
	return fmt.Sprintf("%s:%d:%d", s.URI, s.Line, s.Column)
}

// WithNodePath returns a copy of the SourceRef with NodePath set,
// following the AST's value-typed "with-copy" convention (§9).
func (s SourceRef) WithNodePath(path string) SourceRef {
	s.NodePath = path
	return s
}

var pathSegmentEscape = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeNodePathSegment escapes path-separator and reserved characters
// out of a single nodePath segment so it is safe to use as a report
// directory component (§6 "Persisted state layout").
func SanitizeNodePathSegment(name string) string {
	return pathSegmentEscape.ReplaceAllString(name, "_")
}

// JoinNodePath builds a nodePath segment of the form "name[occurrence]"
// and appends it under parent, matching the `/`-delimited grammar of
// §3 "SourceRef".
func JoinNodePath(parent, name string, occurrence int) string {
	segment := fmt.Sprintf("%s[%d]", SanitizeNodePathSegment(name), occurrence)
	if parent == "" {
		return segment
	}
	return strings.Join([]string{parent, segment}, "/")
}
