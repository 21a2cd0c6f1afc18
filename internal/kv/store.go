package kv

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Store is the engine's concurrent key-value map plus its transaction
// machinery. The zero value is not usable; construct with NewStore.
//
// Thread safety: every exported method is safe for concurrent use. See
// doc.go for the mutex acquisition order that callers extending this
// package must preserve.
type Store struct {
	mapMu sync.RWMutex
	data  map[uint32][]byte

	txMu sync.Mutex
	txns map[int32]map[uint32][]byte // live txn id -> write buffer

	locksMu sync.Mutex
	locked  map[int32][]uint32 // live txn id -> keys held by its read-lock set

	iterMu   sync.Mutex
	iterKeys []uint32
	iterPos  int

	backing Backing
}

// NewStore returns an empty Store. A nil backing is replaced with NopBacking.
func NewStore(backing Backing) *Store {
	if backing == nil {
		backing = NopBacking{}
	}
	return &Store{
		data:    make(map[uint32][]byte),
		txns:    make(map[int32]map[uint32][]byte),
		locked:  make(map[int32][]uint32),
		backing: backing,
	}
}

// Put inserts or overwrites key's value, mirroring the write to Backing.
func (s *Store) Put(key uint32, value []byte) bool {
	v := make([]byte, len(value))
	copy(v, value)

	s.mapMu.Lock()
	s.data[key] = v
	s.mapMu.Unlock()

	s.backing.Put(key, v)
	return true
}

// Get returns a copy of key's value, if present.
func (s *Store) Get(key uint32) ([]byte, bool) {
	s.mapMu.RLock()
	defer s.mapMu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// unsafeGet reads key without acquiring mapMu; callers must already hold it.
func (s *Store) unsafeGet(key uint32) ([]byte, bool) {
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// unsafePut writes key without acquiring mapMu; callers must already hold it.
func (s *Store) unsafePut(key uint32, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
}

// TxnStart creates a new live transaction with an empty write buffer. It
// fails if id already names a live transaction.
func (s *Store) TxnStart(id int32) bool {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if _, exists := s.txns[id]; exists {
		return false
	}
	s.txns[id] = make(map[uint32][]byte)
	return true
}

// TxnPut buffers a write under id's write buffer. It fails if id is not a
// live transaction.
func (s *Store) TxnPut(id int32, key uint32, value []byte) bool {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	buf, ok := s.txns[id]
	if !ok {
		return false
	}
	v := make([]byte, len(value))
	copy(v, value)
	buf[key] = v
	return true
}

// TxnGet reads key on behalf of transaction id, adding key to id's read-lock
// set on success. It fails — returning (false, nil) — if id does not name a
// live transaction, or if key is already held by some other live
// transaction's read-lock set. A key absent from the map is not an error:
// it succeeds with an empty value.
func (s *Store) TxnGet(id int32, key uint32) (bool, []byte) {
	s.txMu.Lock()
	_, live := s.txns[id]
	s.txMu.Unlock()
	if !live {
		return false, nil
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	for otherID, keys := range s.locked {
		if otherID == id {
			continue
		}
		if slices.Contains(keys, key) {
			return false, nil
		}
	}

	s.mapMu.RLock()
	value, _ := s.unsafeGet(key)
	s.mapMu.RUnlock()

	s.locked[id] = append(s.locked[id], key)
	if value == nil {
		value = []byte{}
	}
	return true, value
}

// TxnCommit applies id's write buffer to the map atomically (under a single
// critical section), releases id's read-lock set, and destroys the
// transaction. It fails if id is not a live transaction.
//
// Lock order: txn-table, then map, then lock-registry — the standing order
// documented in doc.go.
func (s *Store) TxnCommit(id int32) bool {
	s.txMu.Lock()
	buf, ok := s.txns[id]
	if !ok {
		s.txMu.Unlock()
		return false
	}

	s.mapMu.Lock()
	for k, v := range buf {
		s.unsafePut(k, v)
	}
	s.mapMu.Unlock()

	for k, v := range buf {
		s.backing.Put(k, v)
	}

	delete(s.txns, id)
	s.txMu.Unlock()

	s.locksMu.Lock()
	delete(s.locked, id)
	s.locksMu.Unlock()

	return true
}

// TxnAbort discards id's write buffer and releases its read-lock set. It
// fails if id is not a live transaction.
func (s *Store) TxnAbort(id int32) bool {
	s.locksMu.Lock()
	delete(s.locked, id)
	s.locksMu.Unlock()

	s.txMu.Lock()
	_, ok := s.txns[id]
	delete(s.txns, id)
	s.txMu.Unlock()

	return ok
}

// InitIter (re)initializes the iteration cursor over a stable snapshot of
// the map's current keys. Keys are sorted so the cursor's order is fully
// deterministic for the lifetime of this cursor — the simplest ordering
// that keeps one iteration stable from start to finish.
func (s *Store) InitIter() {
	s.mapMu.RLock()
	keys := make([]uint32, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mapMu.RUnlock()

	slices.Sort(keys)

	s.iterMu.Lock()
	s.iterKeys = keys
	s.iterPos = 0
	s.iterMu.Unlock()
}

// NextKey advances the iteration cursor, returning (0, false) once the
// snapshot taken by InitIter is exhausted — the idiomatic Go "comma ok"
// form in place of a sentinel value.
func (s *Store) NextKey() (uint32, bool) {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()
	if s.iterPos >= len(s.iterKeys) {
		return 0, false
	}
	k := s.iterKeys[s.iterPos]
	s.iterPos++
	return k, true
}

// Reset replaces the map's contents with an empty map, returning the
// snapshot of key/value pairs it held just before the reset. Used by the
// shard server to snapshot-then-clear its map during redistribution; it
// does not touch live transactions or locks, which are assumed quiescent
// while redistribution runs.
func (s *Store) Reset() map[uint32][]byte {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	snapshot := s.data
	s.data = make(map[uint32][]byte)
	return snapshot
}
