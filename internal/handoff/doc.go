// Package handoff delivers finalized library records to the scheduling
// subsystem.
//
// Two modes exist. The log mode writes the scheduling link for the record to
// the daemon log, which is enough when a human schedules videos by hand. The
// amqp mode publishes a persistent JSON message to a topic exchange so an
// external scheduler can pick the record up. Failures are reported to the
// caller; the library record is never rolled back.
package handoff
