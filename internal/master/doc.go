// Package master implements the coordinator: the shard map, the client
// routing handshake, the redistribution orchestrator, and the optional
// liveness probe.
//
// The coordinator exposes one listening TCP port. A single dispatcher
// goroutine drains accepted connections one at a time — deliberately
// sequential, so client traffic, shard registration, and redistribution
// all serialize through one place rather than racing each other. This is
// the system's only backpressure: none above the kernel socket buffers,
// an accepted limitation rather than something this package works around.
//
// # Redistribution
//
// Notifying shards about a new join and waiting for them to drain runs on
// a bounded set of goroutines — exactly len(shards)-1, never unbounded —
// awaited via sync.WaitGroup before the manage-block flag clears, so a
// caller that blocks on the handoff can never be left waiting on a
// goroutine nobody is tracking.
package master
