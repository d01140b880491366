// Package cmd implements the command-line interface for taskdeck.
//
// This package provides the following commands:
//   - dashboard: Print aggregate task statistics and the filtered task table
//   - login / logout: Manage the persisted session against the task API
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The dashboard command is the default command when no subcommand is specified.
package cmd
