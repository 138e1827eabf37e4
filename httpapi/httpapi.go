// Package httpapi serves the workflow service endpoints over fiber.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/meikuraledutech/workflow"
	"go.uber.org/zap"
)

// Multipart field names of a workflow update.
const (
	fieldName         = "name"
	fieldDescription  = "description"
	fieldNodes        = "nodes"
	fieldEdges        = "edges"
	fieldConfig       = "config"
	fieldDocumentFile = "document_file"
	fieldDocumentName = "document_name"
)

// structValidator adapts go-playground/validator to fiber's binder.
type structValidator struct {
	v *validator.Validate
}

func (s *structValidator) Validate(out any) error {
	return s.v.Struct(out)
}

type handler struct {
	store  workflow.Store
	log    *zap.Logger
	schema *payloadSchema
}

// New builds the fiber app serving store under /api.
func New(store workflow.Store, log *zap.Logger) (*fiber.App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	schema, err := newPayloadSchema()
	if err != nil {
		return nil, err
	}
	h := &handler{store: store, log: log, schema: schema}

	app := fiber.New(fiber.Config{
		StructValidator: &structValidator{v: validator.New()},
	})
	app.Use(h.logRequests)

	api := app.Group("/api")

	// ── Schema ────────────────────────────────────────────────────────
	api.Post("/schema", h.createSchema)
	api.Delete("/schema", h.dropSchema)

	// ── Workflows ─────────────────────────────────────────────────────
	api.Post("/workflow/create", h.createWorkflow)
	api.Get("/workflow/list", h.listWorkflows)
	api.Get("/workflow/:id", h.getWorkflow)
	api.Patch("/workflow/update/:id", h.updateWorkflow)

	// ── Execution ─────────────────────────────────────────────────────
	api.Post("/execute", h.execute)

	return app, nil
}

func (h *handler) logRequests(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.log.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

func (h *handler) createSchema(c fiber.Ctx) error {
	if err := h.store.CreateSchema(c.Context()); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (h *handler) dropSchema(c fiber.Ctx) error {
	if err := h.store.DropSchema(c.Context()); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

func (h *handler) createWorkflow(c fiber.Ctx) error {
	var req workflow.CreateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	rec := &workflow.Record{
		// The service owns ids; the client id is only a placeholder.
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	var err error
	if rec.Nodes, err = parseField(fieldNodes, req.Nodes, "[]"); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if rec.Edges, err = parseField(fieldEdges, req.Edges, "[]"); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if rec.Config, err = parseField(fieldConfig, req.Config, "{}"); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.store.CreateWorkflow(c.Context(), rec); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	h.log.Info("workflow created", zap.String("workflow_id", rec.ID), zap.String("client_id", req.ID))
	return c.Status(201).JSON(fiber.Map{"id": rec.ID})
}

func (h *handler) listWorkflows(c fiber.Ctx) error {
	list, err := h.store.ListWorkflows(c.Context())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(list)
}

func (h *handler) getWorkflow(c fiber.Ctx) error {
	rec, err := h.store.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
	}
	return c.JSON(workflow.Document{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Nodes:       rec.Nodes,
		Edges:       rec.Edges,
		Config:      rec.Config,
	})
}

func (h *handler) updateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "expected multipart form"})
	}

	rec, err := h.store.GetWorkflow(c.Context(), id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
	}

	// Name and description are only replaced when sent.
	if v, ok := formValue(form, fieldName); ok {
		rec.Name = v
	}
	if v, ok := formValue(form, fieldDescription); ok {
		rec.Description = v
	}

	nodes, _ := formValue(form, fieldNodes)
	edges, _ := formValue(form, fieldEdges)
	config, _ := formValue(form, fieldConfig)
	if rec.Nodes, err = parseField(fieldNodes, nodes, "[]"); err == nil {
		err = check(h.schema.nodes, fieldNodes, rec.Nodes)
	}
	if err == nil {
		if rec.Edges, err = parseField(fieldEdges, edges, "[]"); err == nil {
			err = check(h.schema.edges, fieldEdges, rec.Edges)
		}
	}
	if err == nil {
		if rec.Config, err = parseField(fieldConfig, config, "{}"); err == nil {
			err = check(h.schema.config, fieldConfig, rec.Config)
		}
	}
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if files := form.File[fieldDocumentFile]; len(files) > 0 {
		var cfg workflow.OverallConfig
		_ = json.Unmarshal(rec.Config, &cfg)
		if cfg.EmbeddingAPIKey == "" {
			return c.Status(400).JSON(fiber.Map{"error": "embedding api key is missing in config to process document"})
		}
		docName, _ := formValue(form, fieldDocumentName)
		if err := h.saveDocument(c, id, docName, files[0]); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
	}

	err = h.store.UpdateWorkflow(c.Context(), rec)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "workflow updated"})
}

func (h *handler) saveDocument(c fiber.Ctx, workflowID, name string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if name == "" {
		name = fh.Filename
	}
	docID, err := h.store.SaveDocument(c.Context(), &workflow.StoredDocument{
		WorkflowID: workflowID,
		Name:       name,
		Data:       data,
	})
	if err != nil {
		return err
	}
	h.log.Info("document stored",
		zap.String("workflow_id", workflowID),
		zap.String("document_id", docID),
		zap.String("name", name),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (h *handler) execute(c fiber.Ctx) error {
	var req workflow.ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}
	return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "execution backend not configured"})
}

// parseField parses a JSON-text form field, substituting def when it is empty.
func parseField(field, text, def string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = def
	}
	if !json.Valid([]byte(text)) {
		return nil, errors.New("invalid JSON format in " + field)
	}
	return json.RawMessage(text), nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
