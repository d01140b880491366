package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/instrumentation"
	"github.com/taskdeck/taskdeck/internal/server"
)

// ToolHandler is the handler signature the MCP server expects.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
// It records tool invocation metrics and logs the invocation for audit purposes.
// The user identity comes from the active session, when there is one.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", ac, handler))
func InstrumentedToolHandler(toolName string, ac *server.AppContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, "", "", ac, handler)
}

// InstrumentedToolHandlerWithOperation is like InstrumentedToolHandler but
// also records which task API operation the tool performs (list, create,
// update, delete, ...).
func InstrumentedToolHandlerWithOperation(toolName, operation string, ac *server.AppContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, operation, "", ac, handler)
}

// InstrumentedToolHandlerWithEffect is like InstrumentedToolHandler for
// tools that run a best-effort side operation (calendar, reminder, sheets).
func InstrumentedToolHandlerWithEffect(toolName, effect string, ac *server.AppContext, handler ToolHandler) ToolHandler {
	return instrumented(toolName, "", effect, ac, handler)
}

func instrumented(toolName, operation, effect string, ac *server.AppContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := ac.Metrics()
		auditLogger := ac.AuditLogger()

		// If no instrumentation configured, just call the handler
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		if operation != "" {
			invocation.WithOperation(operation)
		}
		if effect != "" {
			invocation.WithEffect(effect)
		}

		userEmail := ""
		if user, ok := ac.Sessions().User(); ok {
			userEmail = user.Email
			invocation.WithUser(userEmail)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if metrics != nil {
			if userEmail != "" {
				metrics.RecordToolInvocationForUser(ctx, toolName, status, userEmail, duration)
			} else {
				metrics.RecordToolInvocation(ctx, toolName, status, duration)
			}
			if operation != "" {
				metrics.RecordAPIOperation(ctx, operation, status, duration)
			}
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
