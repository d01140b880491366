// Package auth_tools provides MCP tools for session management: login,
// registration, profile updates, logout and session inspection. The task
// tools refuse to work without the session these tools establish.
package auth_tools
