// Package client implements the load-driving side of the protocol: N
// goroutines, barrier-synchronized at start and at shutdown, each replaying
// a slice of a workload trace against a shard connection and then
// verifying its own view of the world against the server's.
//
// The reference protocol has each client thread open a second, reverse
// listening socket that the server dials back on to deliver replies. Per
// REDESIGN FLAGS that dance is dropped: a single bidirectional connection
// carries both the request and its reply. The INIT handshake is kept (a
// client still announces a synthetic port on connect) purely for wire
// compatibility with a peer that expects to see it, not because this
// client ever listens on it.
package client
