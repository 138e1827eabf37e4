package workflow

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrWorkflowNotFound = errors.New("workflow: not found")
	ErrUnexpectedStatus = errors.New("workflow: unexpected response status")
	ErrMalformedPayload = errors.New("workflow: malformed payload")
)

// Record is a workflow row as kept by a Store.
// Nodes, Edges and Config hold the parsed JSON the client uploaded.
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       json.RawMessage `json:"edges"`
	Config      json.RawMessage `json:"config"`
}

// StoredDocument is a document uploaded alongside a workflow update.
type StoredDocument struct {
	ID         string
	WorkflowID string
	Name       string
	Data       []byte
}

// Store defines the contract for persisting workflows on the service side.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workflows
	CreateWorkflow(ctx context.Context, rec *Record) error
	GetWorkflow(ctx context.Context, id string) (*Record, error)
	UpdateWorkflow(ctx context.Context, rec *Record) error
	ListWorkflows(ctx context.Context) ([]Summary, error)

	// Documents
	SaveDocument(ctx context.Context, doc *StoredDocument) (string, error)
}
