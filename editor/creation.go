package editor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/wire"
	"go.uber.org/zap"
)

// State is the lifecycle stage of an optimistic creation.
type State int

const (
	Pending State = iota
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Creation tracks one workflow creation from the moment it becomes visible
// until the service confirms or rejects it.
type Creation struct {
	tempID string
	done   chan struct{}

	mu    sync.Mutex
	id    string
	state State
	err   error
}

// TempID returns the client-generated placeholder id.
func (c *Creation) TempID() string { return c.tempID }

// ID returns the placeholder id while pending or failed, and the server id once confirmed.
func (c *Creation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Creation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the service error of a failed creation.
func (c *Creation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the creation leaves Pending.
func (c *Creation) Done() <-chan struct{} { return c.done }

// Wait blocks until the creation settles or ctx is done.
func (c *Creation) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.ID(), c.Err()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Creation) settle(id string, err error) {
	c.mu.Lock()
	if err != nil {
		c.state = Failed
		c.err = err
	} else {
		c.state = Confirmed
		c.id = id
	}
	c.mu.Unlock()
	close(c.done)
}

// Creator makes new workflows visible before the service confirms them.
type Creator struct {
	Service  workflow.Service
	Catalog  *Catalog
	Session  *Session
	Notifier Notifier
	// Navigate, if set, opens the editor on a workflow id.
	Navigate func(id string)
	Log      *zap.Logger
}

// Create registers a new workflow. The catalog entry, the selection, the
// session and navigation switch to a temporary id before the service is
// called; the call itself runs on its own goroutine.
//
// On confirmation the temporary id is replaced by the server id in the
// catalog, the selection and the session. On failure the catalog entry is
// withdrawn. Edits already made under the temporary id stay in the session.
func (cr *Creator) Create(ctx context.Context, name, description string) *Creation {
	tempID := uuid.NewString()
	c := &Creation{tempID: tempID, id: tempID, done: make(chan struct{})}

	cr.Catalog.Add(workflow.Summary{ID: tempID, Name: name, Description: description})
	cr.Catalog.Select(tempID)
	cr.Session.Select(tempID)
	cr.Session.SetMeta(name, description)
	if cr.Navigate != nil {
		cr.Navigate(tempID)
	}

	go cr.confirm(ctx, c, wire.NewCreateRequest(tempID, name, description))
	return c
}

func (cr *Creator) confirm(ctx context.Context, c *Creation, req workflow.CreateRequest) {
	log := cr.logger().With(zap.String("temp_id", c.tempID))

	id, err := cr.Service.Create(ctx, req)
	if err != nil {
		cr.Catalog.Remove(c.tempID)
		log.Error("create workflow", zap.Error(err))
		cr.notifier().Error(MsgCreateFailed, true)
		c.settle("", err)
		return
	}
	if id == "" {
		id = c.tempID
	}

	cr.Catalog.Rename(c.tempID, id)
	cr.Session.Rebind(c.tempID, id)
	log.Info("workflow created", zap.String("workflow_id", id))
	cr.notifier().Success(MsgCreated)
	c.settle(id, nil)
}

func (cr *Creator) logger() *zap.Logger {
	if cr.Log == nil {
		return zap.NewNop()
	}
	return cr.Log
}

func (cr *Creator) notifier() Notifier {
	if cr.Notifier == nil {
		return LogNotifier{Log: cr.Log}
	}
	return cr.Notifier
}
