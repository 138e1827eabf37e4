package workflow

import (
	"context"
	"encoding/json"
)

// CreateRequest is the body of a workflow creation call.
// Nodes, Edges and Config are JSON text; a new workflow sends "[]", "[]" and "{}".
type CreateRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Nodes       string `json:"nodes"`
	Edges       string `json:"edges"`
	Config      string `json:"config"`
}

// Document is a workflow as returned by the service.
// Nodes, Edges and Config may each arrive as a JSON-encoded string, as a JSON
// structure or as null; they are kept raw until decoded at the wire boundary.
type Document struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Nodes       json.RawMessage `json:"nodes"`
	Edges       json.RawMessage `json:"edges"`
	Config      json.RawMessage `json:"config"`
}

// UpdateForm is the multipart body of a workflow update.
// Document, when set, is sent as the binary document_file part.
type UpdateForm struct {
	Name        string
	Description string
	Nodes       string
	Edges       string
	Config      string
	Document    *Attachment
}

// ExecuteRequest asks the service to run a saved workflow.
type ExecuteRequest struct {
	WorkflowID string `json:"workflow_id"`
	UserQuery  string `json:"user_query"`
	UserID     string `json:"user_id,omitempty"`
}

// ChatMessage is one entry of an execution chat history.
type ChatMessage struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ExecuteResult is the response of an execution. Depending on the service it
// carries either a single final response or the whole chat history.
type ExecuteResult struct {
	WorkflowResponse *struct {
		FinalResponse string `json:"final_response"`
	} `json:"workflow_response,omitempty"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
}

// Answer returns the final response, falling back to the last bot message of
// the chat history. It is empty when neither is present.
func (r *ExecuteResult) Answer() string {
	if r.WorkflowResponse != nil && r.WorkflowResponse.FinalResponse != "" {
		return r.WorkflowResponse.FinalResponse
	}
	for i := len(r.ChatHistory) - 1; i >= 0; i-- {
		if r.ChatHistory[i].Role == "bot" {
			return r.ChatHistory[i].Message
		}
	}
	return ""
}

// Service is the remote workflow service the editor persists to.
type Service interface {
	// Create registers a new workflow and returns the id the service assigned.
	Create(ctx context.Context, req CreateRequest) (string, error)
	List(ctx context.Context) ([]Summary, error)
	// Get returns ErrWorkflowNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, id string, form *UpdateForm) error
	Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error)
}
