package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NodeKind identifies one of the fixed node types of a pipeline.
type NodeKind string

const (
	KindQuery     NodeKind = "userQueryNode"
	KindKnowledge NodeKind = "knowledgeBaseNode"
	KindInference NodeKind = "llmNode"
	KindOutput    NodeKind = "outputNode"
)

// Handle identifiers exposed by the node kinds.
// Every kind has at most one output handle (HandleSource); the inference node
// exposes two distinct inputs (HandleContext and HandleQuery).
const (
	HandleSource  = "source"
	HandleTarget  = "target"
	HandleContext = "context"
	HandleQuery   = "query"
)

// LabelUnknown is given to edges no labeling rule recognises.
const LabelUnknown = "Unknown"

// Position is a 2D canvas coordinate owned by the rendering layer.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the workflow.
// Config is never nil; an empty configuration is an empty variant.
type Node struct {
	ID       string
	Kind     NodeKind
	Name     string
	Position Position
	Config   Config
	Selected bool
}

// Clone returns a copy of n with its own Config.
func (n *Node) Clone() *Node {
	c := *n
	if n.Config != nil {
		c.Config = n.Config.clone()
	}
	return &c
}

// Edge is a directed, labelled connection between two node handles.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
	TargetHandle string
	Label        string
	Selected     bool
}

// Workflow is a named pipeline with its nodes, edges and the flattened
// configuration the execution service reads.
type Workflow struct {
	ID          string
	Name        string
	Description string
	Nodes       []*Node
	Edges       []*Edge
	Overall     OverallConfig
}

// OverallConfig is the workflow-level projection of selected node configs.
// It is derived from the nodes and kept in sync on every config edit.
type OverallConfig struct {
	LLMAPIKey        string  `json:"llm_api_key,omitempty"`
	Model            string  `json:"model,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	WebSearchEnabled bool    `json:"web_search_enabled,omitempty"`
	SerpAPIKey       string  `json:"serp_api_key,omitempty"`
	EmbeddingAPIKey  string  `json:"embedding_api_key,omitempty"`
}

// Summary is a workflow list entry.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DisplayName returns the canonical name for a node kind.
// Unknown kinds are named after themselves.
func DisplayName(kind NodeKind) string {
	switch kind {
	case KindQuery:
		return "UserQuery"
	case KindKnowledge:
		return "KnowledgeBase"
	case KindInference:
		return "LLMEngine"
	case KindOutput:
		return "Output"
	default:
		return string(kind)
	}
}

// NewNodeID returns a fresh node id of the form node_<unix-millis>_<suffix>.
func NewNodeID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("node_%d_%s", time.Now().UnixMilli(), suffix)
}

// EdgeID derives an edge id from its endpoints, target handle and creation time,
// so parallel edges between the same pair on different handles never collide.
func EdgeID(source, target, targetHandle string, at time.Time) string {
	return fmt.Sprintf("edge_%s_%s_%s_%d", source, target, targetHandle, at.UnixMilli())
}
