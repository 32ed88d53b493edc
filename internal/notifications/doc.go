// Package notifications delivers studio events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the studio milestones (clip ready,
// merge outcome, finalize, errors) and each category can be switched off in
// the [notifications] section.
//
// All studio code depends only on the small Service interface.
package notifications
