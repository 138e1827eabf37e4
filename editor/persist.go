package editor

import (
	"context"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/wire"
	"go.uber.org/zap"
)

// Persister moves a Session to and from the workflow service.
// Every method reports success as a bool; failures are logged, passed to the
// Notifier and never retried.
type Persister struct {
	svc    workflow.Service
	log    *zap.Logger
	notify Notifier
}

// NewPersister creates a Persister. A nil logger or notifier falls back to a no-op.
func NewPersister(svc workflow.Service, log *zap.Logger, notify Notifier) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	if notify == nil {
		notify = LogNotifier{Log: log}
	}
	return &Persister{svc: svc, log: log, notify: notify}
}

// Save uploads the current state of s under its active id.
func (p *Persister) Save(ctx context.Context, s *Session) bool {
	w := s.Snapshot()
	if w.ID == "" {
		p.log.Warn("save without a selected workflow")
		p.notify.Error(MsgNoSelection, false)
		return false
	}

	form, err := wire.EncodeUpdate(w)
	if err != nil {
		p.log.Error("encode workflow", zap.String("workflow_id", w.ID), zap.Error(err))
		p.notify.Error(MsgSaveFailed, true)
		return false
	}

	if err := p.svc.Update(ctx, w.ID, form); err != nil {
		p.log.Error("save workflow", zap.String("workflow_id", w.ID), zap.Error(err))
		p.notify.Error(MsgSaveFailed, true)
		return false
	}

	p.log.Info("workflow saved",
		zap.String("workflow_id", w.ID),
		zap.Int("nodes", len(w.Nodes)),
		zap.Int("edges", len(w.Edges)),
		zap.Bool("document", form.Document != nil),
	)
	p.notify.Success(MsgSaved)
	return true
}

// Load fetches workflow id and replaces the state of s with it.
// Nothing is written to s unless the whole document decodes.
func (p *Persister) Load(ctx context.Context, s *Session, id string) bool {
	doc, err := p.svc.Get(ctx, id)
	if err != nil {
		p.log.Error("load workflow", zap.String("workflow_id", id), zap.Error(err))
		p.notify.Error(MsgLoadFailed, true)
		return false
	}

	w, err := wire.DecodeWorkflow(id, doc)
	if err != nil {
		p.log.Error("decode workflow", zap.String("workflow_id", id), zap.Error(err))
		p.notify.Error(MsgLoadFailed, false)
		return false
	}

	s.Replace(w)
	p.log.Info("workflow loaded",
		zap.String("workflow_id", id),
		zap.Int("nodes", len(w.Nodes)),
		zap.Int("edges", len(w.Edges)),
	)
	return true
}

// Run executes the saved workflow with the text of its query node and writes
// the answer into its output node.
func (p *Persister) Run(ctx context.Context, s *Session, userID string) bool {
	id := s.ID()
	if id == "" {
		p.notify.Error(MsgNoSelection, false)
		return false
	}

	var query string
	if n := s.FirstOfKind(workflow.KindQuery); n != nil {
		if c, ok := n.Config.(*workflow.QueryConfig); ok {
			query = c.Query
		}
	}

	res, err := p.svc.Execute(ctx, workflow.ExecuteRequest{
		WorkflowID: id,
		UserQuery:  query,
		UserID:     userID,
	})
	if err != nil {
		p.log.Error("run workflow", zap.String("workflow_id", id), zap.Error(err))
		p.notify.Error(MsgRunFailed, true)
		return false
	}

	answer := res.Answer()
	if answer == "" {
		answer = NoResponseAnswer
	}

	// The graph may have changed while the call was in flight.
	if out := s.FirstOfKind(workflow.KindOutput); out != nil {
		s.UpdateNodeConfig(out.ID, workflow.Patch{"output": answer})
	}

	p.log.Info("workflow executed", zap.String("workflow_id", id))
	p.notify.Success(MsgExecuted)
	return true
}
