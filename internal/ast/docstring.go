package ast

// DocString is a fenced `"""` multi-line argument to a Step (§6
// "Feature file grammar"). MediaType is empty for a bare `"""` fence,
// or the media type on the fence line when present; §4.B's
// doc-stringification uses the sentinel MediaType "None" to mark a
// synthetic docString produced from a stripped `"$<param>"` literal.
type DocString struct {
	Line      int
	Content   string
	MediaType string
}

const DocStringMediaNone = "None"

func (d DocString) IsSynthetic() bool {
	return d.MediaType == DocStringMediaNone
}
