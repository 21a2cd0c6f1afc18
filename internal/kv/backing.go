package kv

import (
	"strconv"

	"github.com/dreamware/torua/internal/storage"
)

// Backing is an opaque, optional write-through target sitting behind the
// engine's in-memory map. The engine treats it as a black box: a Put is
// mirrored to Backing best-effort, and a Get never falls through to it (the
// in-memory map is always the source of truth for this process's lifetime —
// Backing exists only so a process restart, or an external reader, has
// something durable to look at). No Backing implementation in this package
// is crash-safe.
type Backing interface {
	Get(key uint32) ([]byte, bool)
	Put(key uint32, value []byte) bool
}

// NopBacking discards every write and never has anything to return. It is
// the default Backing for a Store that has no durable sub-store configured.
type NopBacking struct{}

// Get always reports the key absent.
func (NopBacking) Get(uint32) ([]byte, bool) { return nil, false }

// Put always reports success without storing anything.
func (NopBacking) Put(uint32, []byte) bool { return true }

// MemoryBacking adapts internal/storage.Store's string-keyed interface to
// the engine's uint32 key space. The engine already owns its own sharding,
// locking and iteration; storage.Store contributes the durable map body
// itself rather than being left unwired, so MemoryBacking is a thin
// key-space adapter in front of it, not a second independent map.
type MemoryBacking struct {
	store storage.Store
}

// NewMemoryBacking wraps a fresh storage.MemoryStore as a Backing.
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{store: storage.NewMemoryStore()}
}

// NewBackingOver adapts an arbitrary storage.Store to the uint32-keyed
// Backing interface, for callers that want a non-default Store
// implementation behind the engine.
func NewBackingOver(store storage.Store) *MemoryBacking {
	return &MemoryBacking{store: store}
}

func uintKey(key uint32) string {
	return strconv.FormatUint(uint64(key), 10)
}

// Get returns the stored value, if present.
func (m *MemoryBacking) Get(key uint32) ([]byte, bool) {
	v, err := m.store.Get(uintKey(key))
	if err != nil {
		return nil, false
	}
	return v, true
}

// Put stores value under key. A storage.MemoryStore's Put never actually
// fails; the bool return exists so other Store implementations can report
// write failure without panicking the engine.
func (m *MemoryBacking) Put(key uint32, value []byte) bool {
	return m.store.Put(uintKey(key), value) == nil
}
