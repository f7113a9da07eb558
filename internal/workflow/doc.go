// Package workflow is the operator-facing surface of the readiness pipeline.
//
// Engine resolves action names, applies transitions through the queue store's
// compare-and-swap write, and answers queue, stats, item, and history reads.
// Every read recomputes priorities and aggregates from fresh store data; there
// is no cache to invalidate after a mutation.
//
// Dispatcher drains the notification outbox in the background. It is the only
// long-running loop in the package and runs independently of transitions, so
// a slow or failing notification transport never delays or fails an operator
// action.
package workflow
