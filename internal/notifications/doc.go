// Package notifications tells item owners about pipeline transitions that
// cross a meaningful boundary.
//
// Two transports are available: ntfy over HTTP for human-facing pushes and a
// Kafka topic for downstream systems that react to transitions. NewService
// fans out to every configured transport and degrades to a no-op when none
// is configured. Delivery is driven by the workflow outbox dispatcher, so
// implementations only need to report failure; retries and dead-lettering
// happen upstream.
package notifications
