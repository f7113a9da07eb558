// Package daemon coordinates the long-running atelier process.
//
// It wires configuration, the pipeline store, the transition engine, the
// notification outbox dispatcher, and the HTTP API into a single lifecycle
// with flock-based locking to prevent multiple instances against one data
// directory.
//
// Keep orchestration here: transition rules live in queue, request handling
// in workflow, and payload shapes in api. The daemon focuses on startup,
// shutdown, and routing.
package daemon
