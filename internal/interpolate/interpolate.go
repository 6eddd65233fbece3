// Package interpolate implements Gwen's two placeholder syntaxes and
// their resolution semantics (§4.C): `${name}` property/scope lookups
// and `$<name>` StepDef parameter lookups, resolved innermost-first and
// recursively, with a restricted params-only pass for the StepDef
// dispatch path. Grounded on the teacher's nested-delimiter string
// scanners (internal/lexer/string_tokenizer.go,
// multi_line_string_tokenizer.go) and the `{{ }}` interpolation token
// pair in internal/token/token.go.
package interpolate

import (
	"strings"

	"github.com/gwen-interpreter/gwen/internal/gwenerr"
)

// Lookup resolves a placeholder name to a value. ok is false when the
// name is unbound.
type Lookup func(name string) (value string, ok bool)

// segKind distinguishes the two placeholder syntaxes plus plain text.
type segKind int

const (
	segLiteral segKind = iota
	segProp            // ${...}
	segParam           // $<...>
)

type segment struct {
	kind  segKind
	raw   string    // exact source text, delimiters included for prop/param
	text  string    // literal text, only meaningful when kind == segLiteral
	parts []segment // children between the delimiters, only for prop/param
}

// parse scans s into a segment tree. enterProps controls whether `${`
// spans are parsed into a subtree (full interpolation) or captured
// verbatim as opaque literal text (the restricted params-only pass,
// which must leave `${...}` completely untouched per §4.C
// "interpolateParams").
func parse(s string, enterProps bool) []segment {
	segs, _ := parseUntil([]rune(s), 0, 0, enterProps)
	return segs
}

// parseUntil parses runes starting at i. depth==0 means "parse to end of
// string" (top level); inside a placeholder it is called with depth
// tracking handled by the caller via matching delimiter scan below.
func parseUntil(r []rune, i int, _ int, enterProps bool) ([]segment, int) {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{kind: segLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i < len(r) {
		if r[i] == '$' && i+1 < len(r) && r[i+1] == '{' {
			if !enterProps {
				end := matchingBrace(r, i+2, '{', '}')
				flush()
				segs = append(segs, segment{kind: segLiteral, text: string(r[i : end+1])})
				i = end + 1
				continue
			}
			end := matchingBrace(r, i+2, '{', '}')
			flush()
			if end >= len(r) {
				// Unterminated: no matching '}' — treat verbatim as literal.
				segs = append(segs, segment{kind: segLiteral, text: string(r[i:])})
				i = len(r)
				continue
			}
			inner, _ := parseUntil(r[i+2:end], 0, 0, enterProps)
			segs = append(segs, segment{kind: segProp, raw: string(r[i : end+1]), parts: inner})
			i = end + 1
			continue
		}
		if r[i] == '$' && i+1 < len(r) && r[i+1] == '<' {
			end := matchingBrace(r, i+2, '<', '>')
			flush()
			if end >= len(r) {
				segs = append(segs, segment{kind: segLiteral, text: string(r[i:])})
				i = len(r)
				continue
			}
			// Param bodies are always entered (even in the restricted
			// pass) so nested $<...> resolve and embedded ${...} can be
			// detected and left opaque, per the "skip, not error" rule.
			inner, _ := parseUntil(r[i+2:end], 0, 0, enterProps)
			segs = append(segs, segment{kind: segParam, raw: string(r[i : end+1]), parts: inner})
			i = end + 1
			continue
		}
		lit.WriteRune(r[i])
		i++
	}
	flush()
	return segs, i
}

// matchingBrace returns the index of the close rune matching the open
// rune that was already consumed, honouring nested opens of the same
// pair, starting the scan at i (just past the opening delimiter).
// Returns len(r) when no match is found.
func matchingBrace(r []rune, i int, open, close rune) int {
	depth := 1
	for ; i < len(r); i++ {
		switch r[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(r)
}

// render evaluates a segment tree. mode controls whether ${} segments
// are resolved (always true for segments produced with enterProps) and
// how missing lookups are reported.
type renderMode struct {
	props  Lookup
	params Lookup
	dryRun bool
	// restricted is true for the interpolateParams pass: ${} segments
	// are never entered (parse already left them as opaque literal
	// text), and a $<> whose rendered name still contains "${" is
	// skipped rather than errored.
	restricted bool
}

func renderAll(segs []segment, mode renderMode) (string, error) {
	var out strings.Builder
	for _, s := range segs {
		rendered, err := renderOne(s, mode)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}
	return out.String(), nil
}

func renderOne(s segment, mode renderMode) (string, error) {
	switch s.kind {
	case segLiteral:
		return s.text, nil
	case segProp:
		inner, err := renderAll(s.parts, mode)
		if err != nil {
			return "", err
		}
		v, ok := "", false
		if mode.props != nil {
			v, ok = mode.props(inner)
		}
		if ok {
			return v, nil
		}
		if mode.dryRun {
			return s.raw, nil
		}
		return "", gwenerr.UnboundAttributeError(inner, "property")
	case segParam:
		inner, err := renderAll(s.parts, mode)
		if err != nil {
			return "", err
		}
		if mode.restricted && strings.Contains(inner, "${") {
			// The param name is not fully concrete yet (it embeds an
			// unresolved property placeholder) — skip, don't error,
			// and don't attempt a lookup we can't possibly satisfy.
			return "$<" + inner + ">", nil
		}
		v, ok := "", false
		if mode.params != nil {
			v, ok = mode.params(inner)
		}
		if ok {
			return v, nil
		}
		if mode.dryRun {
			return "$[param:" + inner + "]", nil
		}
		return "", gwenerr.UnboundAttributeError(inner, "param")
	default:
		return "", nil
	}
}

// Interpolate performs a full pass: both `${...}` and `$<...>` are
// resolved, innermost-first and recursively (§4.C). In dry-run mode,
// an unresolved `$<name>` is decorated to `$[param:name]` and an
// unresolved `${...}` is left exactly as written so it can be retried
// at evaluation time; outside dry-run, either kind of unresolved
// placeholder raises UnboundAttribute.
func Interpolate(text string, props, params Lookup, dryRun bool) (string, error) {
	segs := parse(text, true)
	return renderAll(segs, renderMode{props: props, params: params, dryRun: dryRun})
}

// InterpolateParams is the restricted pass used ahead of StepDef
// dispatch (§4.C "interpolateParams"): it expands only `$<...>`,
// leaves every `${...}` completely untouched, and raises
// UnboundAttribute for a missing param unless that param's name itself
// embeds an unresolved `${...}` (in which case it is skipped, not
// errored).
func InterpolateParams(text string, params Lookup) (string, error) {
	segs := parse(text, false)
	return renderAll(segs, renderMode{params: params, restricted: true})
}
