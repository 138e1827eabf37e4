package wire

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/meikuraledutech/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID:          "wf-1",
		Name:        "Support bot",
		Description: "answers questions",
		Nodes: []*workflow.Node{
			{
				ID:       "node_1",
				Kind:     workflow.KindKnowledge,
				Name:     "KnowledgeBase",
				Position: workflow.Position{X: 10, Y: 20.5},
				Config: &workflow.KnowledgeConfig{
					EmbeddingModel:   "text-embedding-3-large",
					APIKey:           "emb-key",
					UploadedFileName: "handbook.pdf",
					UploadedFile:     &workflow.Attachment{Name: "local.pdf", Data: []byte("%PDF-1.7")},
				},
			},
			{
				ID:       "node_2",
				Kind:     workflow.KindInference,
				Name:     "LLMEngine",
				Position: workflow.Position{X: 300, Y: 40},
				Config: &workflow.InferenceConfig{
					Model:            "gemini-1.5-flash",
					APIKey:           "llm-key",
					Temperature:      "0.4",
					WebSearchEnabled: true,
				},
			},
		},
		Edges: []*workflow.Edge{
			{
				ID:           "edge_node_1_node_2_context_1",
				Source:       "node_1",
				Target:       "node_2",
				SourceHandle: "source",
				TargetHandle: "context",
				Label:        "Context",
			},
		},
		Overall: workflow.OverallConfig{
			LLMAPIKey:        "llm-key",
			Model:            "gemini-1.5-flash",
			Temperature:      0.4,
			WebSearchEnabled: true,
			EmbeddingAPIKey:  "emb-key",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	w := sampleWorkflow()

	form, err := EncodeUpdate(w)
	require.NoError(t, err)

	got, err := DecodeWorkflow(w.ID, &workflow.Document{
		Name:        form.Name,
		Description: form.Description,
		Nodes:       json.RawMessage(form.Nodes),
		Edges:       json.RawMessage(form.Edges),
		Config:      json.RawMessage(form.Config),
	})
	require.NoError(t, err)

	// The pending attachment is the one field that does not survive.
	want := sampleWorkflow()
	want.Nodes[0].Config.(*workflow.KnowledgeConfig).UploadedFile = nil

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripStringEncoded(t *testing.T) {
	w := sampleWorkflow()
	form, err := EncodeUpdate(w)
	require.NoError(t, err)

	// Some services hand back the JSON text they were given as a string.
	quote := func(s string) json.RawMessage {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		return b
	}
	got, err := DecodeWorkflow(w.ID, &workflow.Document{
		Name:   form.Name,
		Nodes:  quote(form.Nodes),
		Edges:  quote(form.Edges),
		Config: quote(form.Config),
	})
	require.NoError(t, err)
	require.Len(t, got.Nodes, 2)
	require.Len(t, got.Edges, 1)

	opts := cmpopts.IgnoreFields(workflow.Node{}, "Config")
	if diff := cmp.Diff(sampleWorkflow().Nodes, got.Nodes, opts); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Context", got.Edges[0].Label)
	assert.Equal(t, 0.4, got.Overall.Temperature)
}

func TestEncodeUpdateStripsAttachment(t *testing.T) {
	form, err := EncodeUpdate(sampleWorkflow())
	require.NoError(t, err)

	require.NotNil(t, form.Document)
	assert.Equal(t, "handbook.pdf", form.Document.Name)
	assert.Equal(t, []byte("%PDF-1.7"), form.Document.Data)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(form.Nodes), &nodes))
	assert.Equal(t, "knowledgeBaseNode", nodes[0]["type"])
	assert.Equal(t, map[string]any{"x": 10.0, "y": 20.5}, nodes[0]["position"])
	assert.NotContains(t, nodes[0]["config"], workflow.FieldUploadedFile)
	assert.Equal(t, "handbook.pdf", nodes[0]["config"].(map[string]any)["uploadedFileName"])
}

func TestEncodeUpdateFirstAttachmentOnly(t *testing.T) {
	w := sampleWorkflow()
	w.Nodes = append(w.Nodes, &workflow.Node{
		ID:   "node_3",
		Kind: workflow.KindKnowledge,
		Config: &workflow.KnowledgeConfig{
			UploadedFile: &workflow.Attachment{Name: "second.pdf", Data: []byte("2")},
		},
	})

	form, err := EncodeUpdate(w)
	require.NoError(t, err)
	require.NotNil(t, form.Document)
	assert.Equal(t, "handbook.pdf", form.Document.Name)
}

func TestEncodeUpdateNoAttachment(t *testing.T) {
	w := sampleWorkflow()
	w.Nodes = w.Nodes[1:]

	form, err := EncodeUpdate(w)
	require.NoError(t, err)
	assert.Nil(t, form.Document)
}

func TestEncodeEdges(t *testing.T) {
	form, err := EncodeUpdate(sampleWorkflow())
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": "edge_node_1_node_2_context_1",
		"source": "node_1",
		"target": "node_2",
		"sourceHandle": "source",
		"targetHandle": "context",
		"data": {"name": "Context"}
	}]`, form.Edges)
}

func TestEncodeOverall(t *testing.T) {
	form, err := EncodeUpdate(sampleWorkflow())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"llm_api_key": "llm-key",
		"model": "gemini-1.5-flash",
		"temperature": 0.4,
		"web_search_enabled": true,
		"embedding_api_key": "emb-key"
	}`, form.Config)
}

func TestDecodeEmptyForms(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"string", json.RawMessage(`"[]"`)},
		{"structure", json.RawMessage(`[]`)},
		{"null", json.RawMessage(`null`)},
		{"missing", nil},
		{"empty string", json.RawMessage(`""`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := DecodeNodes(tt.raw)
			require.NoError(t, err)
			assert.NotNil(t, nodes)
			assert.Empty(t, nodes)

			edges, err := DecodeEdges(tt.raw)
			require.NoError(t, err)
			assert.NotNil(t, edges)
			assert.Empty(t, edges)
		})
	}
}

func TestDecodeOverallForms(t *testing.T) {
	want := workflow.OverallConfig{Model: "gpt-4o", Temperature: 0.2, WebSearchEnabled: true}

	got, err := DecodeOverall(json.RawMessage(`{"model":"gpt-4o","temperature":0.2,"web_search_enabled":true}`))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeOverall(json.RawMessage(`"{\"model\":\"gpt-4o\",\"temperature\":\"0.2\",\"web_search_enabled\":\"true\"}"`))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeOverall(json.RawMessage(`"{}"`))
	require.NoError(t, err)
	assert.Equal(t, workflow.OverallConfig{}, got)

	got, err = DecodeOverall(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, workflow.OverallConfig{}, got)
}

func TestDecodeNodeDefaults(t *testing.T) {
	nodes, err := DecodeNodes(json.RawMessage(`[
		{"id": "a", "type": "llmNode", "config": {"model": "gpt-4o"}},
		{"id": "b", "type": "knowledgeBaseNode", "config": {"uploadedFile": {}, "uploadedFileName": "doc.pdf"}},
		{"id": "c", "type": "customNode", "name": "Mine", "position": {"x": 1, "y": 2}}
	]`))
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "LLMEngine", nodes[0].Name)
	assert.Equal(t, workflow.Position{}, nodes[0].Position)
	assert.Equal(t, "gpt-4o", nodes[0].Config.(*workflow.InferenceConfig).Model)

	k := nodes[1].Config.(*workflow.KnowledgeConfig)
	assert.Nil(t, k.UploadedFile)
	assert.Equal(t, "doc.pdf", k.UploadedFileName)

	assert.Equal(t, "Mine", nodes[2].Name)
	assert.Equal(t, workflow.Position{X: 1, Y: 2}, nodes[2].Position)
	assert.NotNil(t, nodes[2].Config)
	assert.Equal(t, workflow.NodeKind("customNode"), nodes[2].Config.Kind())
}

func TestDecodeLegacyNodeEnvelope(t *testing.T) {
	nodes, err := DecodeNodes(json.RawMessage(`[
		{"id": "q", "type": "userQueryNode", "data": {"name": "UserQuery", "config": {"query": "hello"}}}
	]`))
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "hello", nodes[0].Config.(*workflow.QueryConfig).Query)
}

func TestDecodeEdgeLabels(t *testing.T) {
	edges, err := DecodeEdges(json.RawMessage(`[
		{"id": "e1", "source": "a", "target": "b", "sourceHandle": null, "targetHandle": "target", "data": {"name": "Answer"}},
		{"id": "e2", "source": "a", "target": "b", "targetHandle": "query"},
		{"id": "e3", "source": "a", "target": "b", "targetHandle": "query", "label": "Query"}
	]`))
	require.NoError(t, err)
	require.Len(t, edges, 3)

	assert.Equal(t, "Answer", edges[0].Label)
	assert.Empty(t, edges[0].SourceHandle)
	assert.Equal(t, workflow.LabelUnknown, edges[1].Label)
	assert.Equal(t, "Query", edges[2].Label)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  workflow.Document
	}{
		{"nodes string", workflow.Document{Nodes: json.RawMessage(`"[{not json"`)}},
		{"nodes object", workflow.Document{Nodes: json.RawMessage(`{"id":"a"}`)}},
		{"edges string", workflow.Document{Edges: json.RawMessage(`"oops"`)}},
		{"config array", workflow.Document{Config: json.RawMessage(`[1,2]`)}},
		{"config type", workflow.Document{Config: json.RawMessage(`{"temperature":"warm"}`)}},
		{"node config type", workflow.Document{Nodes: json.RawMessage(`[{"id":"a","type":"llmNode","config":{"webSearchEnabled":"maybe"}}]`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeWorkflow("wf", &tt.doc)
			assert.ErrorIs(t, err, workflow.ErrMalformedPayload)
			assert.Nil(t, got)
		})
	}
}

func TestDecodeNilDocument(t *testing.T) {
	_, err := DecodeWorkflow("wf", nil)
	assert.ErrorIs(t, err, workflow.ErrMalformedPayload)
}

func TestNewCreateRequest(t *testing.T) {
	req := NewCreateRequest("tmp", "Name", "Desc")
	assert.Equal(t, workflow.CreateRequest{
		ID: "tmp", Name: "Name", Description: "Desc",
		Nodes: "[]", Edges: "[]", Config: "{}",
	}, req)
}
