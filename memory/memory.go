// Package memory provides an in-process workflow.Store.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/workflow"
)

// Store implements workflow.Store in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	order     []string
	workflows map[string]*workflow.Record
	documents map[string]*workflow.StoredDocument
}

// New creates an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.order = nil
	s.workflows = make(map[string]*workflow.Record)
	s.documents = make(map[string]*workflow.StoredDocument)
}

// CreateSchema is a no-op; the store is always ready.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards every workflow and document.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func (s *Store) CreateWorkflow(ctx context.Context, rec *workflow.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.workflows[rec.ID] = copyRecord(rec)
	return nil
}

// GetWorkflow returns nil, nil if the id is unknown.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (s *Store) UpdateWorkflow(ctx context.Context, rec *workflow.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[rec.ID]; !ok {
		return workflow.ErrWorkflowNotFound
	}
	s.workflows[rec.ID] = copyRecord(rec)
	return nil
}

// ListWorkflows returns summaries in creation order.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]workflow.Summary, 0, len(s.order))
	for _, id := range s.order {
		rec := s.workflows[id]
		list = append(list, workflow.Summary{ID: rec.ID, Name: rec.Name, Description: rec.Description})
	}
	return list, nil
}

func (s *Store) SaveDocument(ctx context.Context, doc *workflow.StoredDocument) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	cp.Data = slices.Clone(doc.Data)
	s.documents[cp.ID] = &cp
	return cp.ID, nil
}

// Documents returns the documents stored for a workflow.
func (s *Store) Documents(workflowID string) []workflow.StoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []workflow.StoredDocument{}
	for _, d := range s.documents {
		if d.WorkflowID == workflowID {
			out = append(out, *d)
		}
	}
	return out
}

func copyRecord(rec *workflow.Record) *workflow.Record {
	cp := *rec
	cp.Nodes = slices.Clone(orDefault(rec.Nodes, "[]"))
	cp.Edges = slices.Clone(orDefault(rec.Edges, "[]"))
	cp.Config = slices.Clone(orDefault(rec.Config, "{}"))
	return &cp
}

func orDefault(v []byte, def string) []byte {
	if len(v) == 0 {
		return []byte(def)
	}
	return v
}
