package wire

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/meikuraledutech/workflow"
)

// DecodeWorkflow normalises a service document into a Workflow with the given id.
// A malformed nodes, edges or config field fails the whole decode.
func DecodeWorkflow(id string, doc *workflow.Document) (*workflow.Workflow, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", workflow.ErrMalformedPayload)
	}

	nodes, err := DecodeNodes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	edges, err := DecodeEdges(doc.Edges)
	if err != nil {
		return nil, err
	}
	overall, err := DecodeOverall(doc.Config)
	if err != nil {
		return nil, err
	}

	return &workflow.Workflow{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Nodes:       nodes,
		Edges:       edges,
		Overall:     overall,
	}, nil
}

// DecodeNodes decodes the nodes field. Missing names are derived from the
// kind, missing positions default to the origin and attachments are dropped.
func DecodeNodes(raw json.RawMessage) ([]*workflow.Node, error) {
	body, err := unwrap("nodes", raw)
	if err != nil {
		return nil, err
	}
	nodes := []*workflow.Node{}
	if body == nil {
		return nodes, nil
	}

	var recs []nodeRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("%w: nodes: %v", workflow.ErrMalformedPayload, err)
	}

	for _, r := range recs {
		values, name := r.Config, r.Name
		if r.Data != nil {
			if values == nil {
				values = r.Data.Config
			}
			if name == "" {
				name = r.Data.Name
			}
		}
		if name == "" {
			name = workflow.DisplayName(r.Type)
		}
		delete(values, workflow.FieldUploadedFile)

		cfg, err := workflow.DecodeConfig(r.Type, values)
		if err != nil {
			return nil, fmt.Errorf("%w: node %s: %v", workflow.ErrMalformedPayload, r.ID, err)
		}

		n := &workflow.Node{ID: r.ID, Kind: r.Type, Name: name, Config: cfg}
		if r.Position != nil {
			n.Position = *r.Position
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// DecodeEdges decodes the edges field. A stored label is kept as is; edges
// without one are labelled Unknown.
func DecodeEdges(raw json.RawMessage) ([]*workflow.Edge, error) {
	body, err := unwrap("edges", raw)
	if err != nil {
		return nil, err
	}
	edges := []*workflow.Edge{}
	if body == nil {
		return edges, nil
	}

	var recs []edgeRecord
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("%w: edges: %v", workflow.ErrMalformedPayload, err)
	}

	for _, r := range recs {
		label := r.Label
		if r.Data != nil && r.Data.Name != "" {
			label = r.Data.Name
		}
		if label == "" {
			label = workflow.LabelUnknown
		}
		edges = append(edges, &workflow.Edge{
			ID:           r.ID,
			Source:       r.Source,
			Target:       r.Target,
			SourceHandle: deref(r.SourceHandle),
			TargetHandle: deref(r.TargetHandle),
			Label:        label,
		})
	}
	return edges, nil
}

// DecodeOverall decodes the config field. Numbers and booleans sent as
// strings are accepted.
func DecodeOverall(raw json.RawMessage) (workflow.OverallConfig, error) {
	var out workflow.OverallConfig

	body, err := unwrap("config", raw)
	if err != nil || body == nil {
		return out, err
	}

	var values map[string]any
	if err := json.Unmarshal(body, &values); err != nil {
		return out, fmt.Errorf("%w: config: %v", workflow.ErrMalformedPayload, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("workflow: config decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return workflow.OverallConfig{}, fmt.Errorf("%w: config: %v", workflow.ErrMalformedPayload, err)
	}
	return out, nil
}
