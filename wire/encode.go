package wire

import (
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/workflow"
)

// EncodeUpdate builds the multipart update body for w.
//
// Attachments are stripped from the node records. The first knowledge node
// holding a pending attachment contributes the document part; any others are
// not sent.
func EncodeUpdate(w *workflow.Workflow) (*workflow.UpdateForm, error) {
	nodes, doc := encodeNodes(w.Nodes)

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(encodeEdges(w.Edges))
	if err != nil {
		return nil, fmt.Errorf("workflow: encode edges: %w", err)
	}
	configJSON, err := json.Marshal(w.Overall)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode config: %w", err)
	}

	return &workflow.UpdateForm{
		Name:        w.Name,
		Description: w.Description,
		Nodes:       string(nodesJSON),
		Edges:       string(edgesJSON),
		Config:      string(configJSON),
		Document:    doc,
	}, nil
}

func encodeNodes(in []*workflow.Node) ([]nodeRecord, *workflow.Attachment) {
	var doc *workflow.Attachment
	out := make([]nodeRecord, 0, len(in))
	for _, n := range in {
		cfg := n.Config
		if cfg == nil {
			cfg = workflow.EmptyConfig(n.Kind)
		}
		fields := cfg.Fields()
		delete(fields, workflow.FieldUploadedFile)

		if k, ok := cfg.(*workflow.KnowledgeConfig); ok && doc == nil && k.UploadedFile != nil {
			name := k.UploadedFileName
			if name == "" {
				name = k.UploadedFile.Name
			}
			doc = &workflow.Attachment{Name: name, Data: k.UploadedFile.Data}
		}

		name := n.Name
		if name == "" {
			name = workflow.DisplayName(n.Kind)
		}
		pos := n.Position
		out = append(out, nodeRecord{
			ID:       n.ID,
			Name:     name,
			Type:     n.Kind,
			Position: &pos,
			Config:   fields,
		})
	}
	return out, doc
}

func encodeEdges(in []*workflow.Edge) []edgeRecord {
	out := make([]edgeRecord, 0, len(in))
	for _, e := range in {
		label := e.Label
		if label == "" {
			label = workflow.LabelUnknown
		}
		out = append(out, edgeRecord{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: nullable(e.SourceHandle),
			TargetHandle: nullable(e.TargetHandle),
			Data:         &edgeData{Name: label},
		})
	}
	return out
}
