// Package ipc exposes engine control to the CLI via JSON-RPC over a Unix
// domain socket. The wire DTOs are shared with the HTTP API through the api
// package; this transport exists so the CLI works without network
// configuration while the daemon holds the instance lock.
package ipc
