// Package store provides the session persistence substrate and, through
// Apply, the atomic-apply guarantee the coordinator requires: every mutating
// call on a session runs as an indivisible unit, its reads, writes, and
// notification emission never interleaved with another call on the same
// session.
//
// Two implementations exist. Memory keeps records in a map with one mutex per
// session and suits tests and single-node deployments without durability.
// Bolt persists records as JSON in a bbolt database, relying on bbolt's
// single-writer transactions for serialization.
//
// Both publish the events a mutation produced before releasing the session's
// exclusivity, so notification order always matches the serialization order
// the store chose. Concurrent calls may be serialized in either order;
// nothing about submission time is preserved.
//
// Session records are never deleted: an ENDED session remains readable
// indefinitely as an immutable historical record.
package store
