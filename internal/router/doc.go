// Package router implements the event router and connection-lifecycle
// state machine at the centre of printhive-core.
//
// The router is the single consumer of the distribution queue and the
// only code that mutates the device-session handle. Every event produced
// by the device-bridge worker or the API worker funnels through one
// serial loop, which classifies the event and forwards it (transformed)
// to the bridge-outbound and/or websocket-outbound queues, spawns or
// tears down the bridge worker, or drops it.
//
// Because session state is confined to the loop, no locks guard it:
// at most one device session can exist, terminal state reports
// deterministically tear the session down, and device-bound commands are
// gated on a live session.
//
// Contradictions between observed events and the session belief (a
// connection created while one is live, a connection error with no
// session to blame) are reported as InvariantViolationError values; the
// configured violation policy decides whether the loop drops the event
// or terminates.
package router
