// Package storage defines a string-keyed Store interface and an in-memory
// implementation, adapted by internal/kv.MemoryBacking into the uint32-keyed
// write-through Backing that can sit behind the engine's in-memory map.
//
// Store is kept minimal on purpose: Get, Put, Delete, List, Stats. The
// engine's own concerns — sharding, transactions, wire framing — live in
// internal/kv and internal/shard; this package only owns the map body
// behind that Backing.
package storage
