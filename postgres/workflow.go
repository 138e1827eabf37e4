package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/workflow"
)

// CreateWorkflow inserts a new workflow row.
// If rec.ID is empty, a UUID is auto-generated and written back.
func (s *PGStore) CreateWorkflow(ctx context.Context, rec *workflow.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO workflows (id, name, description, nodes, edges, config) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Name, rec.Description,
		orEmpty(rec.Nodes, "[]"), orEmpty(rec.Edges, "[]"), orEmpty(rec.Config, "{}"),
	)
	if err != nil {
		return fmt.Errorf("workflow: insert workflow: %w", err)
	}
	return nil
}

// GetWorkflow fetches a single workflow by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*workflow.Record, error) {
	var rec workflow.Record
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, nodes, edges, config FROM workflows WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Nodes, &rec.Edges, &rec.Config)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}

	return &rec, nil
}

// UpdateWorkflow replaces the name, description, nodes, edges and config of a workflow.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *PGStore) UpdateWorkflow(ctx context.Context, rec *workflow.Record) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE workflows
		    SET name = $1, description = $2, nodes = $3, edges = $4, config = $5, updated_at = NOW()
		  WHERE id = $6`,
		rec.Name, rec.Description,
		orEmpty(rec.Nodes, "[]"), orEmpty(rec.Edges, "[]"), orEmpty(rec.Config, "{}"),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("workflow: update workflow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

// ListWorkflows returns every workflow summary, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	defer rows.Close()

	list := []workflow.Summary{}
	for rows.Next() {
		var w workflow.Summary
		if err := rows.Scan(&w.ID, &w.Name, &w.Description); err != nil {
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows workflows: %w", err)
	}

	return list, nil
}
