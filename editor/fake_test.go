package editor

import (
	"context"
	"sync"

	"github.com/meikuraledutech/workflow"
)

// fakeService is a scriptable workflow.Service.
type fakeService struct {
	mu sync.Mutex

	createFn  func(req workflow.CreateRequest) (string, error)
	getFn     func(id string) (*workflow.Document, error)
	updateFn  func(id string, form *workflow.UpdateForm) error
	executeFn func(req workflow.ExecuteRequest) (*workflow.ExecuteResult, error)

	created  []workflow.CreateRequest
	updated  []*workflow.UpdateForm
	executed []workflow.ExecuteRequest
}

func (f *fakeService) Create(ctx context.Context, req workflow.CreateRequest) (string, error) {
	f.mu.Lock()
	f.created = append(f.created, req)
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return req.ID, nil
	}
	return fn(req)
}

func (f *fakeService) List(ctx context.Context) ([]workflow.Summary, error) {
	return []workflow.Summary{{ID: "w1", Name: "First"}}, nil
}

func (f *fakeService) Get(ctx context.Context, id string) (*workflow.Document, error) {
	if f.getFn == nil {
		return nil, workflow.ErrWorkflowNotFound
	}
	return f.getFn(id)
}

func (f *fakeService) Update(ctx context.Context, id string, form *workflow.UpdateForm) error {
	f.mu.Lock()
	f.updated = append(f.updated, form)
	f.mu.Unlock()
	if f.updateFn == nil {
		return nil
	}
	return f.updateFn(id, form)
}

func (f *fakeService) Execute(ctx context.Context, req workflow.ExecuteRequest) (*workflow.ExecuteResult, error) {
	f.mu.Lock()
	f.executed = append(f.executed, req)
	f.mu.Unlock()
	if f.executeFn == nil {
		return &workflow.ExecuteResult{}, nil
	}
	return f.executeFn(req)
}

type note struct {
	msg       string
	ok        bool
	retryable bool
}

// recorder is a Notifier that keeps every notification.
type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{msg: msg, ok: true})
}

func (r *recorder) Error(msg string, retryable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{msg: msg, retryable: retryable})
}

func (r *recorder) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}
