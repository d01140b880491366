// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the taskdeck MCP server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for task API calls, mutations, and side operations
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Remote Task API Metrics:
//   - task_api_operations_total: Counter of task API operations by operation and status
//   - task_api_operation_duration_seconds: Histogram of task API operation durations
//
// Mutation and Effect Metrics:
//   - task_mutations_total: Counter of confirmed task mutations by operation and status
//   - secondary_effects_total: Counter of best-effort side operations
//     (calendar, reminder, sheets) by effect and status
//
// Authentication Metrics:
//   - auth_attempts_total: Counter of login/registration attempts by result
//   - active_sessions: Gauge of active user sessions
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Remote task API calls (taskapi.<operation>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: taskdeck)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "taskdeck",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record a task API operation
//	recorder.RecordAPIOperation(ctx, "list", "success", time.Since(start))
//
//	// Record an MCP tool invocation
//	recorder.RecordToolInvocation(ctx, "task_create", "success", time.Since(start))
package instrumentation
