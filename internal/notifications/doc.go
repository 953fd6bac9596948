// Package notifications announces finished runs through ntfy.
//
// New returns a no-op Notifier when no topic is configured, so callers never
// branch on whether notifications are enabled. Failed, partial and canceled
// runs always notify; clean runs notify unless notify_on_success is off.
package notifications
