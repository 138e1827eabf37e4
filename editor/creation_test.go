package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meikuraledutech/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func waitSettled(t *testing.T, c *Creation) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("creation did not settle")
	}
}

func TestCreateConfirmed(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{createFn: func(req workflow.CreateRequest) (string, error) {
		<-release
		return "server-id", nil
	}}
	existing := workflow.Summary{ID: "w0", Name: "Old"}
	catalog := NewCatalog(existing)
	session := newTestSession()
	rec := &recorder{}
	var navigated []string

	cr := &Creator{
		Service:  svc,
		Catalog:  catalog,
		Session:  session,
		Notifier: rec,
		Navigate: func(id string) { navigated = append(navigated, id) },
		Log:      zaptest.NewLogger(t),
	}

	c := cr.Create(context.Background(), "New", "desc")

	// Visible before the service answers.
	assert.Equal(t, Pending, c.State())
	tmp := c.TempID()
	assert.Equal(t, tmp, c.ID())
	assert.Equal(t, []workflow.Summary{existing, {ID: tmp, Name: "New", Description: "desc"}}, catalog.Entries())
	assert.Equal(t, tmp, catalog.Selected())
	assert.Equal(t, tmp, session.ID())
	assert.Equal(t, "New", session.Name())
	assert.Equal(t, []string{tmp}, navigated)

	// Edits made while pending survive the id swap.
	session.AddNode(&workflow.Node{ID: "q", Kind: workflow.KindQuery})

	close(release)
	waitSettled(t, c)

	assert.Equal(t, Confirmed, c.State())
	assert.NoError(t, c.Err())
	assert.Equal(t, "server-id", c.ID())
	assert.Equal(t, []workflow.Summary{existing, {ID: "server-id", Name: "New", Description: "desc"}}, catalog.Entries())
	assert.Equal(t, "server-id", catalog.Selected())
	assert.Equal(t, "server-id", session.ID())
	assert.Len(t, session.Nodes(), 1)
	assert.Equal(t, []string{tmp}, navigated)
	assert.Equal(t, []note{{msg: MsgCreated, ok: true}}, rec.all())

	require.Len(t, svc.created, 1)
	assert.Equal(t, workflow.CreateRequest{
		ID: tmp, Name: "New", Description: "desc",
		Nodes: "[]", Edges: "[]", Config: "{}",
	}, svc.created[0])
}

func TestCreateFailedRestoresList(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{createFn: func(req workflow.CreateRequest) (string, error) {
		<-release
		return "", errors.New("boom")
	}}
	before := []workflow.Summary{{ID: "w0", Name: "Old"}, {ID: "w1", Name: "Older"}}
	catalog := NewCatalog(before...)
	session := newTestSession()
	rec := &recorder{}

	cr := &Creator{Service: svc, Catalog: catalog, Session: session, Notifier: rec, Log: zaptest.NewLogger(t)}
	c := cr.Create(context.Background(), "Doomed", "")

	pipeline(t, session)
	session.UpdateNodeConfig("q", workflow.Patch{"query": "edited"})
	session.RemoveNode("o")

	close(release)
	waitSettled(t, c)

	assert.Equal(t, Failed, c.State())
	assert.EqualError(t, c.Err(), "boom")
	assert.Equal(t, before, catalog.Entries())
	assert.Equal(t, []note{{msg: MsgCreateFailed, retryable: true}}, rec.all())

	// Edits under the temporary id are not rolled back.
	assert.Equal(t, c.TempID(), session.ID())
	assert.Len(t, session.Nodes(), 3)
}

func TestCreateWait(t *testing.T) {
	cr := &Creator{Service: &fakeService{}, Catalog: NewCatalog(), Session: newTestSession()}
	c := cr.Create(context.Background(), "Echo", "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	id, err := c.Wait(ctx)
	require.NoError(t, err)
	// fakeService echoes the client id.
	assert.Equal(t, c.TempID(), id)
	assert.Equal(t, Confirmed, c.State())
}

func TestCreateRebindSkipsSwitchedSession(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeService{createFn: func(workflow.CreateRequest) (string, error) {
		<-release
		return "server-id", nil
	}}
	catalog := NewCatalog()
	session := newTestSession()
	cr := &Creator{Service: svc, Catalog: catalog, Session: session}

	c := cr.Create(context.Background(), "New", "")
	session.Select("elsewhere")
	catalog.Select("elsewhere")

	close(release)
	waitSettled(t, c)

	assert.Equal(t, "elsewhere", session.ID())
	assert.Equal(t, "elsewhere", catalog.Selected())
	assert.Equal(t, "server-id", catalog.Entries()[0].ID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "failed", Failed.String())
}
