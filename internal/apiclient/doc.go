// Package apiclient talks to a running atelier daemon over its HTTP API.
//
// The CLI uses it to report daemon status; item commands open the pipeline
// database directly and do not need a running daemon.
package apiclient
