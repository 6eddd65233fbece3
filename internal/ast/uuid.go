package ast

import "github.com/google/uuid"

// NewUUID mints the stable opaque identifier every spec node carries
// (§3 "all carry a stable opaque uuid"). Used by the normaliser when it
// synthesises nodes that have no Gherkin-parser-assigned id of their
// own — expanded outline scenarios, synthetic backgrounds and steps.
func NewUUID() string {
	return uuid.NewString()
}
