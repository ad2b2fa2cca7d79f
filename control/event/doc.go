// Package event defines the externally-observable notifications the
// coordinator emits and the Publisher contract for delivering them.
//
// Three notification kinds exist, each emitted at most once per logical
// occurrence: Created when a session opens (the actuator's cue to start
// listening), MoveAccepted for every sequenced move (the actuator's real-time
// drive signal), and Ended with the session's final statistics.
//
// Delivery is fire-and-forget: events are published in the same serialized
// step as the state change they describe, but there is no durability or
// redelivery guarantee beyond that. The websocket hub is the production
// Publisher; tests use capture publishers.
package event
