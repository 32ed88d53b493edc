// Package finalize turns a studio video into a library record and hands the
// record to the scheduler. It implements the studio's Recorder and Handoffer
// over the library, archive, and handoff packages.
package finalize
