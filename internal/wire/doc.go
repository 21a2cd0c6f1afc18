// Package wire implements the length-prefixed binary transport used between
// clients, shard servers, and the master.
//
// # Overview
//
// Every message on the wire is a 4-byte big-endian length header followed by
// exactly that many bytes of payload:
//
//	┌──────────────┬───────────────────────┐
//	│ length (u32) │ payload (length bytes) │
//	└──────────────┴───────────────────────┘
//
// Two payload shapes travel over this envelope: ClientRequest (a sequence of
// Ops) and ServerReply (a single value/success/op_id triple). Which shape a
// caller expects to read is determined by role, not by a tag on the wire —
// a shard server always reads a ClientRequest and writes a ServerReply; a
// client always writes a ClientRequest, but the master's replies are
// themselves ClientRequest-shaped INIT messages (see internal/master), so a
// client must be prepared to decode a ClientRequest from what is logically a
// reply channel.
//
// # Framing discipline
//
// ReadFrame and WriteFrame are blocking. A zero-byte read during either the
// length header or the payload is treated as a transient condition and
// retried up to maxZeroReadRetries times before the connection is declared
// closed; any other read error is fatal immediately. WriteFrame loops until
// every byte has been accepted by the socket or a write fails outright.
//
// # Compatibility
//
// This package defines the "NOT-FOUND" sentinel (NotFound) but does not
// translate it: internal/kv reports a missing key as (value, ok), the shard
// server writes NotFound into a GET reply's value, and clients compare the
// reply value against it.
package wire
