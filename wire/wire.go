// Package wire converts between the in-memory workflow model and the
// representation the remote workflow service stores.
//
// The service returns nodes, edges and config either as JSON-encoded strings,
// as JSON structures or as null. Each field has its own decoder that resolves
// the three forms here, so the ambiguity never reaches the workflow model.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meikuraledutech/workflow"
)

// nodeRecord is a node as persisted by the service.
type nodeRecord struct {
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Type     workflow.NodeKind  `json:"type"`
	Position *workflow.Position `json:"position,omitempty"`
	Config   map[string]any     `json:"config"`

	// Data is the rendering-layer envelope older saves nested name and config in.
	Data *legacyNodeData `json:"data,omitempty"`
}

type legacyNodeData struct {
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// edgeRecord is an edge as persisted by the service. The label travels as data.name.
type edgeRecord struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle *string   `json:"sourceHandle"`
	TargetHandle *string   `json:"targetHandle"`
	Data         *edgeData `json:"data,omitempty"`

	Label string `json:"label,omitempty"`
}

type edgeData struct {
	Name string `json:"name"`
}

// NewCreateRequest returns the body that registers an empty workflow.
func NewCreateRequest(id, name, description string) workflow.CreateRequest {
	return workflow.CreateRequest{
		ID:          id,
		Name:        name,
		Description: description,
		Nodes:       "[]",
		Edges:       "[]",
		Config:      "{}",
	}
}

// unwrap resolves a polymorphic field to its JSON structure.
// It returns nil for null, an empty value or an empty string.
func unwrap(field string, raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", workflow.ErrMalformedPayload, field, err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: %s: invalid JSON string", workflow.ErrMalformedPayload, field)
	}
	return json.RawMessage(s), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
