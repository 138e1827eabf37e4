package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/workflow"
)

// SaveDocument stores an uploaded document for a workflow.
// If doc.ID is empty, a UUID is auto-generated.
// Returns the document ID (generated or provided).
func (s *PGStore) SaveDocument(ctx context.Context, doc *workflow.StoredDocument) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_documents (id, workflow_id, name, data) VALUES ($1, $2, $3, $4)`,
		doc.ID, doc.WorkflowID, doc.Name, doc.Data,
	)
	if err != nil {
		return "", fmt.Errorf("workflow: insert document: %w", err)
	}

	return doc.ID, nil
}
