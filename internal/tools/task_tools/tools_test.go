package task_tools

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/server"
)

func TestGetTaskIDFromArgs(t *testing.T) {
	// Missing taskId
	if _, err := getTaskIDFromArgs(map[string]interface{}{}); err == nil {
		t.Error("expected error for missing taskId")
	}

	// Empty taskId
	if _, err := getTaskIDFromArgs(map[string]interface{}{"taskId": ""}); err == nil {
		t.Error("expected error for empty taskId")
	}

	// Non-string taskId
	if _, err := getTaskIDFromArgs(map[string]interface{}{"taskId": 42}); err == nil {
		t.Error("expected error for non-string taskId")
	}

	id, err := getTaskIDFromArgs(map[string]interface{}{"taskId": "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != api.ID("7") {
		t.Errorf("expected task id '7', got %q", id)
	}
}

func TestFilterFromArgs(t *testing.T) {
	f, err := filterFromArgs(map[string]interface{}{
		"status":   "pending",
		"priority": "high",
		"search":   "report",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Status != api.StatusPending {
		t.Errorf("expected status pending, got %q", f.Status)
	}
	if f.Priority != api.PriorityHigh {
		t.Errorf("expected priority high, got %q", f.Priority)
	}
	if f.Search != "report" {
		t.Errorf("expected search 'report', got %q", f.Search)
	}

	// Empty args mean no filter
	f, err = filterFromArgs(map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsZero() {
		t.Error("expected zero filter for empty args")
	}

	// Invalid enum values are rejected
	if _, err := filterFromArgs(map[string]interface{}{"status": "done"}); err == nil {
		t.Error("expected error for invalid status")
	}
	if _, err := filterFromArgs(map[string]interface{}{"priority": "urgent"}); err == nil {
		t.Error("expected error for invalid priority")
	}
}

func TestPatchFromArgs(t *testing.T) {
	patch, err := patchFromArgs(map[string]interface{}{
		"title":    "New title",
		"priority": "low",
		"status":   "in_progress",
		"dueDate":  "2026-09-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.Title == nil || *patch.Title != "New title" {
		t.Error("expected title to be set")
	}
	if patch.Priority == nil || *patch.Priority != api.PriorityLow {
		t.Error("expected priority to be set")
	}
	if patch.Status == nil || *patch.Status != api.StatusInProgress {
		t.Error("expected status to be set")
	}
	if patch.DueDate == nil {
		t.Error("expected due date to be set")
	}
	if patch.Description != nil {
		t.Error("expected description to stay unset")
	}

	// No args yields an empty patch
	patch, err = patchFromArgs(map[string]interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !patch.IsZero() {
		t.Error("expected zero patch for empty args")
	}

	// Invalid values are rejected
	if _, err := patchFromArgs(map[string]interface{}{"status": "done"}); err == nil {
		t.Error("expected error for invalid status")
	}
	if _, err := patchFromArgs(map[string]interface{}{"dueDate": "tomorrow"}); err == nil {
		t.Error("expected error for invalid due date")
	}
}

func TestToolError(t *testing.T) {
	result := toolError("list tasks", board.ErrAuthenticationRequired)
	if !result.IsError {
		t.Error("expected error result")
	}

	result = toolError("list tasks", errors.New("boom"))
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestRegisterTaskTools(t *testing.T) {
	ac, err := server.NewAppContext(context.Background(), server.AppContextConfig{
		APIBaseURL:  "http://localhost:5000",
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	})
	if err != nil {
		t.Fatalf("failed to create app context: %v", err)
	}
	defer func() { _ = ac.Shutdown() }()

	s := mcpserver.NewMCPServer("test", "0.0.1")
	if err := RegisterTaskTools(s, ac, false); err != nil {
		t.Errorf("RegisterTaskTools() error = %v", err)
	}

	// Read-only registration must not fail either
	s = mcpserver.NewMCPServer("test", "0.0.1")
	if err := RegisterTaskTools(s, ac, true); err != nil {
		t.Errorf("RegisterTaskTools() read-only error = %v", err)
	}
}
