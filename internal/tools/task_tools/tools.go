package task_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/board"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/instrumentation"
	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/tools/batch"
	"github.com/taskdeck/taskdeck/internal/tools/common"
)

// getTaskIDFromArgs extracts the required taskId argument.
func getTaskIDFromArgs(args map[string]interface{}) (api.ID, error) {
	taskID, ok := args["taskId"].(string)
	if !ok || taskID == "" {
		return "", fmt.Errorf("taskId is required")
	}
	return api.ID(taskID), nil
}

// filterFromArgs builds a view filter from the optional status, priority
// and search arguments. Invalid enum values are rejected rather than
// silently matching nothing.
func filterFromArgs(args map[string]interface{}) (cache.Filter, error) {
	var f cache.Filter
	if status, ok := args["status"].(string); ok && status != "" {
		s := api.Status(status)
		if !s.IsValid() {
			return cache.Filter{}, fmt.Errorf("invalid status %q (expected pending, in_progress or completed)", status)
		}
		f.Status = s
	}
	if priority, ok := args["priority"].(string); ok && priority != "" {
		p := api.Priority(priority)
		if !p.IsValid() {
			return cache.Filter{}, fmt.Errorf("invalid priority %q (expected low, medium or high)", priority)
		}
		f.Priority = p
	}
	if search, ok := args["search"].(string); ok {
		f.Search = search
	}
	return f, nil
}

// patchFromArgs builds a partial task update from the optional arguments.
func patchFromArgs(args map[string]interface{}) (api.TaskPatch, error) {
	var patch api.TaskPatch
	if title, ok := args["title"].(string); ok && title != "" {
		patch.Title = &title
	}
	if description, ok := args["description"].(string); ok {
		patch.Description = &description
	}
	if priority, ok := args["priority"].(string); ok && priority != "" {
		p := api.Priority(priority)
		if !p.IsValid() {
			return api.TaskPatch{}, fmt.Errorf("invalid priority %q (expected low, medium or high)", priority)
		}
		patch.Priority = &p
	}
	if status, ok := args["status"].(string); ok && status != "" {
		s := api.Status(status)
		if !s.IsValid() {
			return api.TaskPatch{}, fmt.Errorf("invalid status %q (expected pending, in_progress or completed)", status)
		}
		patch.Status = &s
	}
	if dueStr, ok := args["dueDate"].(string); ok && dueStr != "" {
		due, err := time.Parse(time.RFC3339, dueStr)
		if err != nil {
			return api.TaskPatch{}, fmt.Errorf("invalid dueDate %q (expected RFC3339)", dueStr)
		}
		patch.DueDate = &due
	}
	return patch, nil
}

// toolError renders a board failure for the MCP client. Authentication
// failures get an actionable message instead of a bare error string.
func toolError(action string, err error) *mcp.CallToolResult {
	if err == board.ErrAuthenticationRequired {
		return mcp.NewToolResultError("Not logged in. Use the auth_login tool (or auth_register for a new account) before working with tasks.")
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// RegisterTaskTools registers all task-related tools with the MCP server.
// Mutating tools are only registered when readOnly is false.
func RegisterTaskTools(s *mcpserver.MCPServer, ac *server.AppContext, readOnly bool) error {
	registerReadTools(s, ac)
	if !readOnly {
		registerWriteTools(s, ac)
		registerEffectTools(s, ac)
	}
	return nil
}

// registerReadTools registers the tools that only read cached task state.
func registerReadTools(s *mcpserver.MCPServer, ac *server.AppContext) {
	listTool := mcp.NewTool("task_list",
		mcp.WithDescription("List the logged-in user's tasks, optionally filtered by status, priority or a search term"),
		mcp.WithString("status",
			mcp.Description("Only return tasks with this status: 'pending', 'in_progress' or 'completed'"),
		),
		mcp.WithString("priority",
			mcp.Description("Only return tasks with this priority: 'low', 'medium' or 'high'"),
		),
		mcp.WithString("search",
			mcp.Description("Only return tasks whose title or description contains this text (case-insensitive)"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Refetch tasks from the server before listing (default: true)"),
		),
	)

	s.AddTool(listTool, common.InstrumentedToolHandlerWithOperation("task_list", instrumentation.OperationList, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			filter, err := filterFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			refresh := true
			if r, ok := args["refresh"].(bool); ok {
				refresh = r
			}
			if refresh {
				if err := ac.Board().Refresh(ctx); err != nil {
					return toolError("list tasks", err), nil
				}
			}

			var tasks []api.Task
			for _, task := range ac.Cache().Tasks() {
				if filter.Matches(task) {
					tasks = append(tasks, task)
				}
			}
			if tasks == nil {
				tasks = []api.Task{}
			}

			result, _ := json.MarshalIndent(tasks, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	getTool := mcp.NewTool("task_get",
		mcp.WithDescription("Get details of a single task by its ID"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to retrieve"),
		),
	)

	s.AddTool(getTool, common.InstrumentedToolHandlerWithOperation("task_get", instrumentation.OperationGet, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskID, err := getTaskIDFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			task, ok := ac.Cache().Get(taskID)
			if !ok {
				// Not cached yet; pull fresh state before giving up.
				if err := ac.Board().Refresh(ctx); err != nil {
					return toolError("get task", err), nil
				}
				task, ok = ac.Cache().Get(taskID)
			}
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("Task %s not found", taskID)), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))

	statsTool := mcp.NewTool("dashboard_stats",
		mcp.WithDescription("Get aggregate task statistics: totals per status, overdue count and completion rate"),
		mcp.WithBoolean("refresh",
			mcp.Description("Refetch tasks from the server before computing stats (default: true)"),
		),
	)

	s.AddTool(statsTool, common.InstrumentedToolHandler("dashboard_stats", ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			refresh := true
			if r, ok := args["refresh"].(bool); ok {
				refresh = r
			}
			if refresh {
				if err := ac.Board().Refresh(ctx); err != nil {
					return toolError("compute stats", err), nil
				}
			}

			result, _ := json.MarshalIndent(ac.Cache().Stats(), "", "  ")
			return mcp.NewToolResultText(string(result)), nil
		}))
}

// registerWriteTools registers the tools that mutate tasks.
func registerWriteTools(s *mcpserver.MCPServer, ac *server.AppContext) {
	createTool := mcp.NewTool("task_create",
		mcp.WithDescription("Create a new task. Optionally schedules it on the calendar in the same call."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The title of the new task"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description of the task"),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority: 'low', 'medium' or 'high' (default: 'medium')"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status: 'pending', 'in_progress' or 'completed' (default: 'pending')"),
		),
		mcp.WithString("dueDate",
			mcp.Description("Due date in RFC3339 format"),
		),
		mcp.WithBoolean("addToCalendar",
			mcp.Description("Also create a calendar event for the task (default: false). The task is kept even if the calendar step fails."),
		),
	)

	s.AddTool(createTool, common.InstrumentedToolHandlerWithOperation("task_create", instrumentation.OperationCreate, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			title, ok := args["title"].(string)
			if !ok || title == "" {
				return mcp.NewToolResultError("title is required"), nil
			}

			draft := api.TaskDraft{Title: title}
			if description, ok := args["description"].(string); ok {
				draft.Description = description
			}
			if priority, ok := args["priority"].(string); ok && priority != "" {
				draft.Priority = api.Priority(priority)
			}
			if status, ok := args["status"].(string); ok && status != "" {
				draft.Status = api.Status(status)
			}
			if dueStr, ok := args["dueDate"].(string); ok && dueStr != "" {
				due, err := time.Parse(time.RFC3339, dueStr)
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("invalid dueDate %q (expected RFC3339)", dueStr)), nil
				}
				draft.DueDate = &due
			}

			addToCalendar := false
			if a, ok := args["addToCalendar"].(bool); ok {
				addToCalendar = a
			}

			var task api.Task
			var err error
			if addToCalendar {
				task, err = ac.Board().CreateWithCalendar(ctx, draft, api.CalendarOptions{})
			} else {
				task, err = ac.Board().Create(ctx, draft)
			}
			if err != nil {
				if board.IsSecondary(err) {
					// The task exists; only the calendar step failed.
					result, _ := json.MarshalIndent(task, "", "  ")
					return mcp.NewToolResultText(fmt.Sprintf("Task created, but scheduling it on the calendar failed (%v):\n%s", err, string(result))), nil
				}
				return toolError("create task", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Task created successfully:\n%s", string(result))), nil
		}))

	updateTool := mcp.NewTool("task_update",
		mcp.WithDescription("Update an existing task. Only the provided fields change."),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to update"),
		),
		mcp.WithString("title",
			mcp.Description("New title for the task"),
		),
		mcp.WithString("description",
			mcp.Description("New description for the task"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority: 'low', 'medium' or 'high'"),
		),
		mcp.WithString("status",
			mcp.Description("New status: 'pending', 'in_progress' or 'completed'"),
		),
		mcp.WithString("dueDate",
			mcp.Description("New due date in RFC3339 format"),
		),
	)

	s.AddTool(updateTool, common.InstrumentedToolHandlerWithOperation("task_update", instrumentation.OperationUpdate, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskID, err := getTaskIDFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			patch, err := patchFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if patch.IsZero() {
				return mcp.NewToolResultError("at least one field to update is required"), nil
			}

			task, err := ac.Board().Update(ctx, taskID, patch)
			if err != nil {
				return toolError("update task", err), nil
			}

			result, _ := json.MarshalIndent(task, "", "  ")
			return mcp.NewToolResultText(fmt.Sprintf("Task updated successfully:\n%s", string(result))), nil
		}))

	completeTool := mcp.NewTool("task_complete",
		mcp.WithDescription("Mark one or more tasks as completed"),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to complete"),
		),
	)

	s.AddTool(completeTool, common.InstrumentedToolHandlerWithOperation("task_complete", instrumentation.OperationUpdate, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskIDs, err := batch.ParseStringOrArray(args["taskIds"], "taskIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(taskIDs, func(taskID string) (string, error) {
				task, err := ac.Board().Complete(ctx, api.ID(taskID))
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Task %s (%s) completed", taskID, task.Title), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))

	deleteTool := mcp.NewTool("task_delete",
		mcp.WithDescription("Delete one or more tasks"),
		mcp.WithString("taskIds",
			mcp.Required(),
			mcp.Description("Task ID (string) or array of task IDs to delete"),
		),
	)

	s.AddTool(deleteTool, common.InstrumentedToolHandlerWithOperation("task_delete", instrumentation.OperationDelete, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskIDs, err := batch.ParseStringOrArray(args["taskIds"], "taskIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			results := batch.ProcessBatch(taskIDs, func(taskID string) (string, error) {
				if err := ac.Board().Delete(ctx, api.ID(taskID)); err != nil {
					return "", err
				}
				return fmt.Sprintf("Task %s deleted", taskID), nil
			})

			return mcp.NewToolResultText(batch.FormatResults(results)), nil
		}))
}

// registerEffectTools registers the tools that run best-effort side
// operations against the calendar, mail and spreadsheet integrations.
func registerEffectTools(s *mcpserver.MCPServer, ac *server.AppContext) {
	addToCalendarTool := mcp.NewTool("task_add_to_calendar",
		mcp.WithDescription("Create a calendar event for a task. The task itself is unaffected if this fails."),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to schedule"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Event duration in minutes"),
		),
		mcp.WithNumber("reminderMinutes",
			mcp.Description("Reminder lead time in minutes"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("description",
			mcp.Description("Event description (defaults to the task description)"),
		),
	)

	s.AddTool(addToCalendarTool, common.InstrumentedToolHandlerWithEffect("task_add_to_calendar", instrumentation.EffectCalendar, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskID, err := getTaskIDFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			var opts api.CalendarOptions
			if d, ok := args["durationMinutes"].(float64); ok {
				opts.DurationMinutes = int(d)
			}
			if r, ok := args["reminderMinutes"].(float64); ok {
				opts.ReminderMinutes = int(r)
			}
			if location, ok := args["location"].(string); ok {
				opts.Location = location
			}
			if description, ok := args["description"].(string); ok {
				opts.Description = description
			}

			eventID, err := ac.Board().AddToCalendar(ctx, taskID, opts)
			if err != nil {
				return toolError("add task to calendar", err), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Task %s added to calendar as event %s", taskID, eventID)), nil
		}))

	removeFromCalendarTool := mcp.NewTool("task_remove_from_calendar",
		mcp.WithDescription("Remove a task's calendar event"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task whose calendar event should be removed"),
		),
	)

	s.AddTool(removeFromCalendarTool, common.InstrumentedToolHandlerWithEffect("task_remove_from_calendar", instrumentation.EffectCalendar, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskID, err := getTaskIDFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := ac.Board().RemoveFromCalendar(ctx, taskID); err != nil {
				return toolError("remove task from calendar", err), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Calendar event for task %s removed", taskID)), nil
		}))

	sendReminderTool := mcp.NewTool("task_send_reminder",
		mcp.WithDescription("Send a reminder email for a task"),
		mcp.WithString("taskId",
			mcp.Required(),
			mcp.Description("The ID of the task to send a reminder for"),
		),
		mcp.WithString("recipientEmail",
			mcp.Description("Recipient address (default: the logged-in user's own email)"),
		),
	)

	s.AddTool(sendReminderTool, common.InstrumentedToolHandlerWithEffect("task_send_reminder", instrumentation.EffectReminder, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			taskID, err := getTaskIDFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			recipient := ""
			if r, ok := args["recipientEmail"].(string); ok {
				recipient = r
			}

			if err := ac.Board().SendReminder(ctx, taskID, recipient); err != nil {
				return toolError("send reminder", err), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Reminder sent for task %s", taskID)), nil
		}))

	exportTool := mcp.NewTool("task_export_sheets",
		mcp.WithDescription("Export all tasks to a spreadsheet and return its URL"),
		mcp.WithString("spreadsheetName",
			mcp.Description("Name for the exported spreadsheet"),
		),
	)

	s.AddTool(exportTool, common.InstrumentedToolHandlerWithEffect("task_export_sheets", instrumentation.EffectSheets, ac,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, _ := request.Params.Arguments.(map[string]interface{})

			name := ""
			if n, ok := args["spreadsheetName"].(string); ok {
				name = n
			}

			url, err := ac.Board().ExportToSheets(ctx, name)
			if err != nil {
				return toolError("export tasks", err), nil
			}

			return mcp.NewToolResultText(fmt.Sprintf("Tasks exported to %s", url)), nil
		}))
}
