package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)

	client, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", client.BaseURL(), "trailing slash is trimmed")
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	assert.NoError(t, client.Health(context.Background()))
}

func TestListTasks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "u-1", r.URL.Query().Get("user_id"))
		w.Write([]byte(`{"success":true,"data":{"tasks":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}}`))
	})

	tasks, err := client.ListTasks(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, ID("1"), tasks[0].ID)
}

func TestListTasksEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"tasks":[]}}`))
	})

	tasks, err := client.ListTasks(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestCreateTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)

		var draft TaskDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "buy milk", draft.Title)
		assert.Equal(t, PriorityMedium, draft.Priority, "priority defaults to medium")
		assert.Equal(t, StatusPending, draft.Status, "status defaults to pending")

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"task":{"id":10,"title":"buy milk","priority":"medium","status":"pending"}}}`))
	})

	task, err := client.CreateTask(context.Background(), TaskDraft{Title: "buy milk"})
	require.NoError(t, err)
	assert.Equal(t, ID("10"), task.ID)
}

func TestCreateTaskValidation(t *testing.T) {
	// Handler must never be reached for client-side validation failures.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the server")
	})

	_, err := client.CreateTask(context.Background(), TaskDraft{Title: "   "})
	assert.True(t, IsKind(err, KindValidation))

	_, err = client.CreateTask(context.Background(), TaskDraft{Title: "t", Priority: "urgent"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = client.CreateTask(context.Background(), TaskDraft{Title: "t", Status: "done"})
	assert.True(t, IsKind(err, KindValidation))
}

func TestUpdateTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tasks/5", r.URL.Path)

		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "completed", got["status"])
		assert.NotContains(t, got, "title", "unset patch fields stay off the wire")

		w.Write([]byte(`{"data":{"task":{"id":5,"title":"kept","status":"completed","priority":"low"}}}`))
	})

	status := StatusCompleted
	task, err := client.UpdateTask(context.Background(), "5", TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, "kept", task.Title)
}

func TestUpdateTaskRequiresID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the server")
	})
	_, err := client.UpdateTask(context.Background(), "", TaskPatch{})
	assert.True(t, IsKind(err, KindValidation))
}

func TestDeleteTask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/5", r.URL.Path)
		w.Write([]byte(`{"success":true,"message":"task deleted"}`))
	})
	assert.NoError(t, client.DeleteTask(context.Background(), "5"))
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindUnauthenticated},
		{http.StatusForbidden, KindUnauthenticated},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"success":false,"error":"nope"}`))
		})

		err := client.DeleteTask(context.Background(), "1")
		require.Error(t, err)
		assert.True(t, IsKind(err, tt.kind), "status %d should map to %s", tt.status, tt.kind)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.status, apiErr.StatusCode)
		assert.Contains(t, apiErr.Error(), "nope", "server message is carried through")
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = client.ListTasks(context.Background(), "")
	assert.True(t, IsKind(err, KindNetwork))
}

func TestMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"done"}`))
	})

	_, err := client.CreateTask(context.Background(), TaskDraft{Title: "t"})
	assert.True(t, IsKind(err, KindMalformed))
}

func TestAddToCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/7/add-to-calendar", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"event_id":"evt-123"}}`))
	})

	eventID, err := client.AddToCalendar(context.Background(), "7", CalendarOptions{DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", eventID)
}

func TestAddToCalendarBareResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event_id":"evt-9"}`))
	})

	eventID, err := client.AddToCalendar(context.Background(), "7", CalendarOptions{})
	require.NoError(t, err)
	assert.Equal(t, "evt-9", eventID)
}

func TestRemoveFromCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/7/remove-from-calendar", r.URL.Path)
		w.Write([]byte(`{"success":true}`))
	})
	assert.NoError(t, client.RemoveFromCalendar(context.Background(), "7"))
}

func TestSendReminder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/7/send-reminder", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ana@example.com", payload["recipient_email"])
		w.Write([]byte(`{"success":true,"message":"reminder sent"}`))
	})
	assert.NoError(t, client.SendReminder(context.Background(), "7", "ana@example.com"))
}

func TestExportToSheets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/export/sheets", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"spreadsheet_url":"https://sheets.example.com/s/1"}}`))
	})

	url, err := client.ExportToSheets(context.Background(), "My Tasks")
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.example.com/s/1", url)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ana@example.com", creds.Email)
		w.Write([]byte(`{"success":true,"data":{"user":{"id":1,"name":"Ana","email":"ana@example.com"}}}`))
	})

	user, err := client.Login(context.Background(), Credentials{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, ID("1"), user.ID)
	assert.Equal(t, "Ana", user.Name)
}

func TestLoginInvalidCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), Credentials{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, IsKind(err, KindUnauthenticated))
}

func TestRegister(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"user":{"id":2,"name":"Bo","email":"bo@example.com"}}}`))
	})

	user, err := client.Register(context.Background(), Registration{Name: "Bo", Email: "bo@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, ID("2"), user.ID)
}

func TestUpdateProfile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/profile", r.URL.Path)
		w.Write([]byte(`{"data":{"user":{"id":1,"name":"Ana Maria","email":"ana@example.com"}}}`))
	})

	user, err := client.UpdateProfile(context.Background(), ProfilePatch{UserID: "1", Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", user.Name)
}
