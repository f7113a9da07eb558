// Package preflight provides readiness checks for the filesystem paths and
// notification transports atelier depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll on start and logs failures as warnings. A broken
//     transport only delays notifications, since the outbox keeps retrying.
//   - The CLI "atelier health" command prints every result next to the
//     database diagnostics.
//
// Transport checks are skipped when the transport is not configured.
package preflight
