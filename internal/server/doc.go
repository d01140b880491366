// Package server wires the taskdeck application together and exposes
// its operational HTTP surfaces.
//
// # Key Components
//
// AppContext owns the remote task API client, the session manager, the
// task cache and the board, plus the shutdown lifecycle. It restores a
// persisted session on startup so a restart resumes the same identity.
//
// HealthChecker serves Kubernetes-style probes:
//   - /healthz: process liveness
//   - /readyz: readiness, including a probe of the remote task API's
//     own /health endpoint
//   - /healthz/detailed: uptime and overall status
//
// MetricsServer serves Prometheus metrics on a dedicated port, keeping
// operational metrics away from the main application traffic.
package server
