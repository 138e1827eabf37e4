package workflow

// Connection is a raw connection gesture as reported by the rendering layer.
type Connection struct {
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
}

// side selects which endpoint of a connection a labeling rule inspects.
type side int

const (
	sourceSide side = iota
	targetSide
)

type labelRule struct {
	side   side
	kind   NodeKind
	handle string
	label  string
}

// labelRules are evaluated in order; the first match wins.
var labelRules = []labelRule{
	{targetSide, KindKnowledge, HandleTarget, "Query Intake"},
	{sourceSide, KindQuery, HandleSource, "Query"},
	{sourceSide, KindKnowledge, HandleSource, "Context"},
	{targetSide, KindInference, HandleContext, "Context"},
	{targetSide, KindInference, HandleQuery, "Query"},
	{sourceSide, KindInference, HandleSource, "Answer"},
	{targetSide, KindOutput, HandleTarget, "Answer"},
}

// Label derives the semantic label of a new edge from the kinds and handles of
// its endpoints. Node content is never consulted. Connections no rule matches
// are labelled LabelUnknown.
func Label(c Connection, nodes []*Node) string {
	var srcKind, dstKind NodeKind
	for _, n := range nodes {
		if n.ID == c.Source {
			srcKind = n.Kind
		}
		if n.ID == c.Target {
			dstKind = n.Kind
		}
	}

	for _, r := range labelRules {
		kind, handle := srcKind, c.SourceHandle
		if r.side == targetSide {
			kind, handle = dstKind, c.TargetHandle
		}
		if kind == r.kind && handleMatches(r.handle, handle) {
			return r.label
		}
	}
	return LabelUnknown
}

// handleMatches reports whether got names the rule handle. Single-handle sides
// accept an empty handle id, the inference inputs must be named explicitly.
func handleMatches(want, got string) bool {
	if got == want {
		return true
	}
	return got == "" && (want == HandleSource || want == HandleTarget)
}
