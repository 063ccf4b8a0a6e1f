// Package api defines the transport-neutral DTOs shared by the HTTP surface,
// the IPC service, and the CLI, plus converters from engine types.
package api
