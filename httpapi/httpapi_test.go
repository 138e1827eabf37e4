package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.New()
	app, err := New(store, zaptest.NewLogger(t))
	require.NoError(t, err)
	return app, store
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	file bool
	name string
	val  string
}

func multipartRequest(t *testing.T, path string, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.file {
			w, err := mw.CreateFormFile(p.name, "upload.pdf")
			require.NoError(t, err)
			_, err = io.WriteString(w, p.val)
			require.NoError(t, err)
			continue
		}
		require.NoError(t, mw.WriteField(p.name, p.val))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createWorkflow(t *testing.T, app *fiber.App, name string) string {
	t.Helper()
	status, body := do(t, app, jsonRequest(http.MethodPost, "/api/workflow/create",
		`{"id":"tmp","name":"`+name+`","description":"d","nodes":"[]","edges":"[]","config":"{}"}`))
	require.Equal(t, 201, status, string(body))
	var out struct{ ID string }
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestCreateAssignsServerID(t *testing.T) {
	app, store := newTestApp(t)

	id := createWorkflow(t, app, "Bot")
	assert.NotEqual(t, "tmp", id)

	rec, err := store.GetWorkflow(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Bot", rec.Name)
	assert.JSONEq(t, `[]`, string(rec.Nodes))
	assert.JSONEq(t, `{}`, string(rec.Config))
}

func TestCreateValidation(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, jsonRequest(http.MethodPost, "/api/workflow/create", `{"description":"no name"}`))
	assert.Equal(t, 400, status)

	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/workflow/create", `{"name":"x","nodes":"[oops"}`))
	assert.Equal(t, 400, status)

	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/workflow/create", `not json`))
	assert.Equal(t, 400, status)
}

func TestListAndGet(t *testing.T) {
	app, _ := newTestApp(t)
	id := createWorkflow(t, app, "Bot")

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/workflow/list", nil))
	require.Equal(t, 200, status)
	var list []workflow.Summary
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, []workflow.Summary{{ID: id, Name: "Bot", Description: "d"}}, list)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/workflow/"+id, nil))
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"id":"`+id+`","name":"Bot","description":"d","nodes":[],"edges":[],"config":{}}`, string(body))
}

func TestGetNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/workflow/missing", nil))
	assert.Equal(t, 404, status)
}

func TestUpdate(t *testing.T) {
	app, store := newTestApp(t)
	id := createWorkflow(t, app, "Bot")

	nodes := `[{"id":"n1","name":"UserQuery","type":"userQueryNode","position":{"x":1,"y":2},"config":{"query":"q"}}]`
	edges := `[{"id":"e1","source":"n1","target":"n2","sourceHandle":null,"targetHandle":"target","data":{"name":"Query Intake"}}]`
	status, body := do(t, app, multipartRequest(t, "/api/workflow/update/"+id,
		part{name: "name", val: "Renamed"},
		part{name: "nodes", val: nodes},
		part{name: "edges", val: edges},
		part{name: "config", val: `{"model":"gpt-4o","embedding_api_key":"k"}`},
		part{name: "document_name", val: "handbook.pdf"},
		part{file: true, name: "document_file", val: "%PDF"},
	))
	require.Equal(t, 200, status, string(body))

	rec, err := store.GetWorkflow(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rec.Name)
	assert.Equal(t, "d", rec.Description)
	assert.JSONEq(t, nodes, string(rec.Nodes))
	assert.JSONEq(t, edges, string(rec.Edges))

	docs := store.Documents(id)
	require.Len(t, docs, 1)
	assert.Equal(t, "handbook.pdf", docs[0].Name)
	assert.Equal(t, []byte("%PDF"), docs[0].Data)
}

func TestUpdateRejectsBadPayloads(t *testing.T) {
	app, _ := newTestApp(t)
	id := createWorkflow(t, app, "Bot")

	tests := []struct {
		name  string
		parts []part
	}{
		{"malformed nodes", []part{{name: "nodes", val: "[{"}}},
		{"node without type", []part{{name: "nodes", val: `[{"id":"n1"}]`}}},
		{"edge without target", []part{{name: "edges", val: `[{"id":"e","source":"a"}]`}}},
		{"config not an object", []part{{name: "config", val: `[1]`}}},
		{"document without embedding key", []part{{file: true, name: "document_file", val: "%PDF"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, app, multipartRequest(t, "/api/workflow/update/"+id, tt.parts...))
			assert.Equal(t, 400, status)
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := do(t, app, multipartRequest(t, "/api/workflow/update/missing", part{name: "nodes", val: "[]"}))
	assert.Equal(t, 404, status)
}

func TestUpdateRequiresMultipart(t *testing.T) {
	app, _ := newTestApp(t)
	id := createWorkflow(t, app, "Bot")
	req := jsonRequest(http.MethodPatch, "/api/workflow/update/"+id, `{"nodes":"[]"}`)
	status, _ := do(t, app, req)
	assert.Equal(t, 400, status)
}

func TestExecuteNotImplemented(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := do(t, app, jsonRequest(http.MethodPost, "/api/execute", `{"workflow_id":"x","user_query":"hi"}`))
	assert.Equal(t, fiber.StatusNotImplemented, status)
}

func TestSchemaRoutes(t *testing.T) {
	app, store := newTestApp(t)
	createWorkflow(t, app, "Bot")

	status, _ := do(t, app, httptest.NewRequest(http.MethodDelete, "/api/schema", nil))
	assert.Equal(t, 200, status)
	list, err := store.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	status, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/api/schema", nil))
	assert.Equal(t, 200, status)
}
