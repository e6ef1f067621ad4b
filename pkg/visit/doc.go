// Package visit implements the navigation state machine at the heart of
// detour: one Visit per navigation attempt, driven either by a full page
// load or by a script bridge inside an already-loaded page.
//
// A Visit moves one way through initialized, started, and exactly one of
// canceled, failed, or completed. Two sub-phases are tracked independently
// of that state: the network request (started/finished, each at most once)
// and the navigation/render phase, whose completion drains a FIFO queue of
// deferred continuations.
//
// Everything in this package assumes a single cooperative execution
// context: the controller and every Surface callback must run on the same
// goroutine. Nothing here blocks and nothing takes a lock; waiting is
// expressed by registering a continuation, never by parking a goroutine.
// Surface adapters are responsible for serializing their callbacks (see
// adapters/wsbridge).
package visit
