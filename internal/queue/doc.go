// Package queue persists pipeline items in SQLite and owns the readiness
// pipeline's state machine.
//
// Items carry a two-axis status: a coarse review status and, while approved,
// a pipeline phase. Status values are only built through constructors so an
// approved item always has a phase and every other status never does. The
// package also provides the pure read-side helpers operators rely on: queue
// classification, age-based priority, the fixed action table, and aggregate
// stats.
//
// The Store is the sole transaction boundary. Every status change flows through
// ApplyTransition or MarkPublished, which compare-and-swap the item row and
// append the audit entry, review record, and notification outbox intent in the
// same SQLite transaction. Schema changes bump the version in schema.go; users
// delete the database to adopt the new schema.
package queue
