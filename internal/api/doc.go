// Package api defines wire-format types and converters for the HTTP API and
// the CLI's JSON output. It translates queue and workflow models into
// transport-friendly DTOs so clients never couple to internal types.
//
// # Key Types
//
// PipelineItem: an item with its status pair, derived queue and priority, and
// review fields.
//
// QueueStats: per-queue counts, urgent count, completed-today count, and
// average wait over the configured window.
//
// ErrorResponse: the body returned for refused requests. Code is a stable
// machine token (unknown_action, not_found, conflict, terminal, validation);
// Reason is the human-readable sentence shown to operators.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed both as the combined
// wire form ("approved/sampling") and as separate reviewStatus and phase
// fields. Timestamps use RFC3339 with milliseconds. Metadata passes through
// as json.RawMessage to avoid double-encoding.
package api
