// Package service implements the coordination façade over the session
// domain. ControlService is the single entry point for creating sessions,
// submitting movement commands, and ending expired sessions; transports
// (REST, WebSocket, MCP) call it and never touch the store directly.
//
// The service owns the clock. It captures the current time exactly once per
// logical call, converts it to epoch milliseconds, and passes that value into
// the domain; nothing below the service reads wall-clock time. Tests inject a
// fixed clock to pin time-dependent behavior.
//
// Mutations run through SessionStore.Apply, which serializes calls per
// session and publishes the resulting notifications before releasing
// exclusivity. The session.created notification is published by the service
// directly: until CreateSession returns, no other caller holds the new
// session's ID, so there is no call for the store to order it against.
package service
