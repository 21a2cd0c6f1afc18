// Package shard implements one shard server: a TCP listener, a bounded
// worker pool draining accepted connections, and the per-connection
// request-dispatch state machine.
//
// # Architecture
//
//	┌────────────┐  accept   ┌───────────┐  drain   ┌──────────────┐
//	│  Listener  │ ───────▶  │   Queue   │ ───────▶ │ Worker (×N)  │
//	└────────────┘           └───────────┘          └──────────────┘
//	                                                       │
//	                                                       ▼
//	                                                  kv.Store (1 per shard)
//
// A Server owns exactly one kv.Store. On startup it registers with the
// master over a short-lived connection — a single INIT handshake attempt:
// connect, send INIT{port}, close. A failed attempt is logged and not
// retried. After that it
// only reacts to connections the master, other shards, or clients open to
// it.
//
// # Redistribution
//
// Redistribution arrives as a TXN_START op on an otherwise ordinary
// accepted connection. This package keeps the reinsert loop on the same
// connection that delivered the trigger and runs it to completion before
// closing that connection — the master, which treats the very same socket
// as an ordinary inbound connection once it has sent the trigger, awaits
// EOF on it as "this shard is done streaming." That gives the master an
// unambiguous completion signal instead of a detached task it can't track.
//
// # Concurrency
//
// Connection handling is one goroutine per active connection, bounded by a
// fixed-size worker pool reading off a channel-backed queue.
package shard
