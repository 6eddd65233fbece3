package ast

import (
	"fmt"
	"regexp"
)

// Tag is a `@name` or `@name("value")` annotation. Grounded on the
// teacher's ast.Tag{Token, Name, Args}, simplified to Gwen's single
// optional string value (Gherkin tags carry at most one literal
// argument, never arbitrary expressions).
type Tag struct {
	id    string
	ref   SourceRef
	Name  string
	Value *string // nil when the tag carries no "(value)"
}

func NewTag(uuid string, ref SourceRef, name string, value *string) Tag {
	return Tag{id: uuid, ref: ref, Name: name, Value: value}
}

func (t Tag) UUID() string    { return t.id }
func (t Tag) Type() NodeType  { return NodeTag }
func (t Tag) Ref() SourceRef  { return t.ref }

func (t Tag) String() string {
	if t.Value != nil {
		return fmt.Sprintf("@%s(%q)", t.Name, *t.Value)
	}
	return "@" + t.Name
}

var tagNameSyntax = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTagSyntax enforces "whitespace in names/values is rejected"
// (§3 "Reserved tags"). Names are also held to a fixed character set:
// they must match [A-Za-z_][A-Za-z0-9_]*. Values are checked for
// whitespace only.
func ValidateTagSyntax(name string, value *string) error {
	if !tagNameSyntax.MatchString(name) {
		return fmt.Errorf("invalid tag name %q: names must match [A-Za-z_][A-Za-z0-9_]*", name)
	}
	if value != nil {
		for _, r := range *value {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return fmt.Errorf("invalid tag %q(%q): whitespace not allowed in tag value", name, *value)
			}
		}
	}
	return nil
}

// HasTag reports whether any tag in tags has the given reserved name.
func HasTag(tags []Tag, name string) bool {
	for _, t := range tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// FindTag returns the first tag with the given name, if present.
func FindTag(tags []Tag, name string) (Tag, bool) {
	for _, t := range tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}
