// Package common provides shared plumbing for MCP tool implementations,
// most importantly the instrumented handler wrappers that record tool
// invocation metrics and audit logs around every registered tool.
package common
