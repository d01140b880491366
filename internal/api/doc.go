// Package api provides the client for the remote task REST API.
//
// The client wraps the CRUD task endpoints, the auth endpoints, and the
// best-effort integration endpoints (calendar, mail reminders, spreadsheet
// export) behind typed operations:
//   - Tasks: ListTasks, CreateTask, UpdateTask, DeleteTask
//   - Auth: Login, Register, UpdateProfile
//   - Integrations: AddToCalendar, RemoveFromCalendar, SendReminder, ExportToSheets
//   - Liveness: Health
//
// # Response normalization
//
// The server wraps payloads in different envelope shapes depending on the
// endpoint and its age. Every response passes through one normalization
// function per record kind with a documented precedence order, so callers
// always see the canonical Task and User shapes. Responses in which no
// recognizable record can be found fail with a malformed-response error.
//
// # Errors
//
// Every operation returns *Error carrying an ErrorKind from the taxonomy
// in errors.go. Transport failures and timeouts map to KindNetwork; the
// per-request timeout defaults to DefaultTimeout.
package api
