// Package session tracks the authenticated user.
//
// A Manager holds the active session in memory and mirrors it to a
// Store so a restart resumes the same identity. The file-backed store
// lives under the user cache directory; an in-memory store covers tests
// and ephemeral runs. Data operations elsewhere in the app refuse to
// run without an active session.
package session
