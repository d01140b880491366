// Package board orchestrates everything the dashboard does with tasks.
//
// A Board ties the API client, the session manager and the task cache
// together. Data operations run only with an active session; without
// one they fail fast with ErrAuthenticationRequired and never touch the
// network. Mutations are confirmed-then-apply: the cache changes only
// after the server acknowledges, so there is nothing to roll back.
//
// Calendar events, mail reminders and spreadsheet exports are best
// effort. Their failures come back as *SecondaryError and leave the
// primary task state untouched; successful calendar effects are followed
// by a refresh so server-assigned fields are never fabricated locally.
package board
