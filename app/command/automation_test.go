package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docchat/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAutomationStore struct {
	autos []types.Automation
	err   error
}

func (s *stubAutomationStore) ListAutomations(context.Context) ([]types.Automation, error) {
	return s.autos, s.err
}

func newAutomationFixture() *stubAutomationStore {
	return &stubAutomationStore{autos: DefaultAutomations()}
}

func TestAutomationHandle_BareCommandLists(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(), "@automation")

	assert.Contains(t, reply, "Available automations:")
	assert.Contains(t, reply, "**Weather Check**")
	assert.Contains(t, reply, "**Send Email**")
	assert.Contains(t, reply, "**Create Task**")
}

func TestAutomationHandle_HelpLists(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	assert.Contains(t, svc.Handle(context.Background(), "@automation help"), "Available automations:")
	assert.Contains(t, svc.Handle(context.Background(), "@automation ?"), "Available automations:")
}

func TestAutomationHandle_UnknownNameFallsBackToList(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(), "@automation launch rockets")

	assert.Contains(t, reply, "couldn't find an automation matching")
	assert.Contains(t, reply, "Available automations:")
}

func TestAutomationHandle_DescribeWithoutParams(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(), "@automation send email")

	assert.Contains(t, reply, "**Send Email**")
	assert.Contains(t, reply, "Parameters:")
	assert.Contains(t, reply, "- to: Required - Recipient email")
	assert.Contains(t, reply, "@automation Send Email")
	assert.Contains(t, reply, "to=example@example.com")
}

func TestAutomationHandle_MissingRequiredParams(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(), "@automation send email to=a@b.com")

	assert.Contains(t, reply, "required parameters are missing")
	assert.Contains(t, reply, "- body:")
	assert.Contains(t, reply, "- subject:")
	assert.NotContains(t, reply, "- to:")
}

func TestAutomationHandle_ExecutesInternalEmail(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(),
		"@automation send email to=a@b.com subject=status update body=all good")

	assert.Contains(t, reply, "**Send Email** execution result:")
	assert.Contains(t, reply, "Email would be sent to a@b.com with subject 'status update'")
}

func TestAutomationHandle_ExecutesCreateTaskDefaults(t *testing.T) {
	svc := NewAutomationService(newAutomationFixture())

	reply := svc.Handle(context.Background(), "@automation create task title=ship release")

	assert.Contains(t, reply, "Task 'ship release' would be created with priority 'medium' and due date 'Not specified'")
}

func TestAutomationHandle_ExternalEndpointPostsJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	store := &stubAutomationStore{autos: []types.Automation{{
		ID:          uuid.New(),
		Name:        "Ping Service",
		Description: "Ping an external service",
		Endpoint:    srv.URL,
		Parameters:  map[string]string{"target": "Required - Target host"},
	}}}
	svc := NewAutomationService(store)

	reply := svc.Handle(context.Background(), "@automation ping service target=db01")

	assert.Equal(t, "db01", got["target"])
	assert.Contains(t, reply, "API response (status 200)")
	assert.Contains(t, reply, `{"ok":true}`)
}

func TestAutomationHandle_StoreErrorIsFriendly(t *testing.T) {
	svc := NewAutomationService(&stubAutomationStore{err: assert.AnError})

	reply := svc.Handle(context.Background(), "@automation weather check")

	assert.Contains(t, reply, "not available at the moment")
}
