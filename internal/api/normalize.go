package api

import (
	"encoding/json"
	"fmt"
)

// The task API has grown several response envelopes over time. A task may
// arrive as {"success":true,"data":{"task":{...}}}, as {"data":{...}}, or
// as a bare object; a task list as {"success":true,"data":{"tasks":[...]}}
// or as a bare array. The helpers below extract the canonical records
// regardless of wrapping, in that precedence order, and report a malformed
// payload when nothing task-shaped can be found.

// envelope is the common response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// taskData covers the known nestings inside an envelope's data field.
type taskData struct {
	Task  json.RawMessage `json:"task"`
	Tasks json.RawMessage `json:"tasks"`
	User  json.RawMessage `json:"user"`
}

// looksLikeTask reports whether raw decodes to an object carrying the two
// fields every task record has.
func looksLikeTask(raw json.RawMessage) bool {
	var probe struct {
		ID    *ID     `json:"id"`
		Title *string `json:"title"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.ID != nil && probe.Title != nil
}

// decodeTask unmarshals raw into a Task after a shape check, so a stray
// object (e.g. an error payload) is rejected instead of yielding a zero task.
func decodeTask(raw json.RawMessage) (Task, error) {
	if !looksLikeTask(raw) {
		return Task{}, fmt.Errorf("no task-shaped object in response")
	}
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return Task{}, fmt.Errorf("decoding task: %w", err)
	}
	return t, nil
}

// normalizeTask extracts a single Task from a response body.
//
// Precedence: data.task, then data itself, then the bare body.
func normalizeTask(body []byte) (Task, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		var d taskData
		if err := json.Unmarshal(env.Data, &d); err == nil && len(d.Task) > 0 {
			return decodeTask(d.Task)
		}
		if t, err := decodeTask(env.Data); err == nil {
			return t, nil
		}
	}
	return decodeTask(body)
}

// normalizeTaskList extracts a task slice from a response body.
//
// Precedence: data.tasks, then data as a bare array, then the body as a
// bare array. An empty list is valid and yields an empty (non-nil) slice.
func normalizeTaskList(body []byte) ([]Task, error) {
	decode := func(raw json.RawMessage) ([]Task, bool) {
		var tasks []Task
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return nil, false
		}
		if tasks == nil {
			tasks = []Task{}
		}
		return tasks, true
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		var d taskData
		if err := json.Unmarshal(env.Data, &d); err == nil && len(d.Tasks) > 0 {
			if tasks, ok := decode(d.Tasks); ok {
				return tasks, nil
			}
		}
		if tasks, ok := decode(env.Data); ok {
			return tasks, nil
		}
	}
	if tasks, ok := decode(body); ok {
		return tasks, nil
	}
	return nil, fmt.Errorf("no task list in response")
}

// normalizeUser extracts a User from an auth response body.
//
// Precedence: data.user, then data itself, then the bare body.
func normalizeUser(body []byte) (User, error) {
	decode := func(raw json.RawMessage) (User, bool) {
		var probe struct {
			ID    *ID     `json:"id"`
			Email *string `json:"email"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == nil || probe.Email == nil {
			return User{}, false
		}
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return User{}, false
		}
		return u, true
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		var d taskData
		if err := json.Unmarshal(env.Data, &d); err == nil && len(d.User) > 0 {
			if u, ok := decode(d.User); ok {
				return u, nil
			}
		}
		if u, ok := decode(env.Data); ok {
			return u, nil
		}
	}
	if u, ok := decode(body); ok {
		return u, nil
	}
	return User{}, fmt.Errorf("no user object in response")
}

// serverMessage pulls the human-readable error text out of a failure
// envelope, falling back to the provided default.
func serverMessage(body []byte, fallback string) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return fallback
}
