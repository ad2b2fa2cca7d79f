// Package session implements the crowd-control session record and its
// lifecycle rules.
//
// A Session is one timed, shared control window for the robot: any number of
// untrusted principals submit directional moves against it until its fixed
// 120-second lifetime runs out. The package implements:
//   - The session record with its participation stats
//   - The WAITING -> ACTIVE -> ENDED lifecycle (monotonic, ENDED is terminal)
//   - Lazy wall-clock expiry (no timers; expiry is observed by calls)
//   - Move sequencing and participant de-duplication
//   - The eight-way direction enumeration used by move submissions
//
// Time Model:
//
// All timing is epoch milliseconds. A logical call captures "now" exactly once
// at its entry point and passes that value into every check it performs, so a
// call can never observe expiry flip mid-execution.
//
// Concurrency:
//
// Session methods are not safe for concurrent use on a shared record. Callers
// must serialize mutations per session; the store package's Apply provides
// that guarantee. The methods themselves are pure state transitions over the
// receiver plus the supplied clock value, which keeps them trivially testable.
//
// Expiry Policy:
//
// A submit that observes now >= EndTime on a live session is consumed by
// termination: the session transitions to ENDED and the triggering move is
// never recorded or sequenced. This drop-and-end behavior is deliberate.
package session
