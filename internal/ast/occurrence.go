package ast

// OccurrenceCounter assigns 1-based occurrence numbers to a list of
// sibling names, in the order given (ties broken by position, which for
// a parsed tree is source order — §3 "SourceRef", "occurrence is
// 1-based among siblings sharing the same name under the same parent").
// This is the free function the design notes call for in place of a
// per-node-type occurrenceIn method (§9 "tagged variants over
// inheritance").
func OccurrenceCounter() func(name string) int {
	seen := map[string]int{}
	return func(name string) int {
		seen[name]++
		return seen[name]
	}
}

// AssignOccurrences returns, for each name in order, its 1-based
// occurrence among same-named predecessors.
func AssignOccurrences(names []string) []int {
	next := OccurrenceCounter()
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = next(n)
	}
	return out
}
