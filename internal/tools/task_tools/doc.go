// Package task_tools provides MCP tools for working with the task board:
// listing and inspecting tasks, computing dashboard statistics, and the
// full set of mutations (create, update, complete, delete) plus the
// best-effort calendar, reminder and spreadsheet integrations.
//
// All tools operate on the logged-in user's tasks; without an active
// session they return an error pointing at the auth tools. Mutating
// tools are only registered when the server runs with write access.
package task_tools
