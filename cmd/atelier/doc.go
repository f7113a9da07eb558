// Package main hosts the atelier CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the operator workflow: listing queues,
// inspecting items and their history, applying pipeline actions, managing the
// notification outbox, and running the daemon that serves the HTTP API. Item
// commands open the pipeline database directly; the store's optimistic
// concurrency keeps them safe to run beside a live daemon.
//
// Keep this package lean: transition rules belong in internal/queue and
// request handling in internal/workflow. Commands here parse flags and render
// results.
package main
