// Package kv implements the sharded store's concurrent key-value engine:
// plain put/get, multi-operation transactions guarded by per-transaction
// read-lock sets, and a stable iteration cursor.
//
// Three independent critical sections guard disjoint state, one mutex per
// concern rather than one lock for the whole store:
//
//   - the map itself (plain puts/gets and the committed view of every txn),
//   - the live-transaction table (write buffers for ACTIVE txns),
//   - the lock registry (which keys are held by which txn's read-lock set).
//
// Commit acquires them in the order txn-table → map → lock-registry: it
// holds txn-table while it takes map, and takes lock-registry only after
// releasing both. TxnGet holds lock-registry while it reads the map; since
// commit never holds lock-registry together with either of the other two,
// the two orders cannot deadlock. Nothing in this package acquires
// txn-table while holding map.
package kv
