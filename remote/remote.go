// Package remote implements workflow.Service over HTTP.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
	"github.com/meikuraledutech/workflow"
	"go.uber.org/zap"
)

const (
	pathCreate  = "/workflow/create"
	pathList    = "/workflow/list"
	pathGet     = "/workflow/:id"
	pathUpdate  = "/workflow/update/:id"
	pathExecute = "/execute"

	// Multipart field names of an update.
	FieldName         = "name"
	FieldDescription  = "description"
	FieldNodes        = "nodes"
	FieldEdges        = "edges"
	FieldConfig       = "config"
	FieldDocumentFile = "document_file"
	FieldDocumentName = "document_name"
)

// DefaultTimeout bounds a single request when no other timeout is set.
const DefaultTimeout = 30 * time.Second

// Client talks to a workflow service rooted at a base URL.
type Client struct {
	http    *client.Client
	log     *zap.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client for the service at baseURL, e.g. http://127.0.0.1:8000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    client.New().SetBaseURL(baseURL),
		log:     zap.NewNop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ workflow.Service = (*Client)(nil)

func (c *Client) request(ctx context.Context) *client.Request {
	return c.http.R().SetContext(ctx).SetTimeout(c.timeout)
}

// Create registers a workflow and returns the id the service assigned.
func (c *Client) Create(ctx context.Context, req workflow.CreateRequest) (string, error) {
	resp, err := c.request(ctx).SetJSON(req).Post(pathCreate)
	if err != nil {
		return "", fmt.Errorf("workflow: create: %w", err)
	}
	defer resp.Close()

	if err := expect(resp, fiber.StatusCreated); err != nil {
		return "", fmt.Errorf("workflow: create: %w", err)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := decode(resp, &out); err != nil {
		return "", fmt.Errorf("workflow: create: %w", err)
	}
	c.log.Debug("workflow created", zap.String("temp_id", req.ID), zap.String("workflow_id", out.ID))
	return out.ID, nil
}

// List returns every workflow summary.
func (c *Client) List(ctx context.Context) ([]workflow.Summary, error) {
	resp, err := c.request(ctx).Get(pathList)
	if err != nil {
		return nil, fmt.Errorf("workflow: list: %w", err)
	}
	defer resp.Close()

	if err := expect(resp, fiber.StatusOK); err != nil {
		return nil, fmt.Errorf("workflow: list: %w", err)
	}
	list := []workflow.Summary{}
	if err := decode(resp, &list); err != nil {
		return nil, fmt.Errorf("workflow: list: %w", err)
	}
	return list, nil
}

// Get fetches a workflow document. Unknown ids return ErrWorkflowNotFound.
func (c *Client) Get(ctx context.Context, id string) (*workflow.Document, error) {
	resp, err := c.request(ctx).SetPathParam("id", id).Get(pathGet)
	if err != nil {
		return nil, fmt.Errorf("workflow: get %s: %w", id, err)
	}
	defer resp.Close()

	if err := expect(resp, fiber.StatusOK); err != nil {
		return nil, fmt.Errorf("workflow: get %s: %w", id, err)
	}
	var doc workflow.Document
	if err := decode(resp, &doc); err != nil {
		return nil, fmt.Errorf("workflow: get %s: %w", id, err)
	}
	return &doc, nil
}

// Update sends form as a multipart body, attaching the document when present.
func (c *Client) Update(ctx context.Context, id string, form *workflow.UpdateForm) error {
	var files []*client.File
	if doc := form.Document; doc != nil {
		name := doc.Name
		if name == "" {
			name = "document"
		}
		files = append(files, client.AcquireFile(
			client.SetFileName(name),
			client.SetFileFieldName(FieldDocumentFile),
			client.SetFileReader(io.NopCloser(bytes.NewReader(doc.Data))),
		))
	}

	// AddFiles goes first so the body stays multipart even without a document.
	req := c.request(ctx).
		SetPathParam("id", id).
		AddFiles(files...).
		SetFormData(FieldName, form.Name).
		SetFormData(FieldDescription, form.Description).
		SetFormData(FieldNodes, form.Nodes).
		SetFormData(FieldEdges, form.Edges).
		SetFormData(FieldConfig, form.Config)
	if form.Document != nil {
		req.SetFormData(FieldDocumentName, form.Document.Name)
	}

	resp, err := req.Patch(pathUpdate)
	if err != nil {
		return fmt.Errorf("workflow: update %s: %w", id, err)
	}
	defer resp.Close()

	if err := expect(resp, fiber.StatusOK); err != nil {
		return fmt.Errorf("workflow: update %s: %w", id, err)
	}
	return nil
}

// Execute runs a saved workflow.
func (c *Client) Execute(ctx context.Context, req workflow.ExecuteRequest) (*workflow.ExecuteResult, error) {
	resp, err := c.request(ctx).SetJSON(req).Post(pathExecute)
	if err != nil {
		return nil, fmt.Errorf("workflow: execute %s: %w", req.WorkflowID, err)
	}
	defer resp.Close()

	if err := expect(resp, fiber.StatusOK); err != nil {
		return nil, fmt.Errorf("workflow: execute %s: %w", req.WorkflowID, err)
	}
	var out workflow.ExecuteResult
	if err := decode(resp, &out); err != nil {
		return nil, fmt.Errorf("workflow: execute %s: %w", req.WorkflowID, err)
	}
	return &out, nil
}

// expect maps a response status to the service sentinel errors.
func expect(resp *client.Response, status int) error {
	switch code := resp.StatusCode(); code {
	case status:
		return nil
	case fiber.StatusNotFound:
		return workflow.ErrWorkflowNotFound
	default:
		return fmt.Errorf("%w: %d %s", workflow.ErrUnexpectedStatus, code, snippet(resp.Body()))
	}
}

func decode(resp *client.Response, v any) error {
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrMalformedPayload, err)
	}
	return nil
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
