// Package shard implements the fundamental storage unit for the cluster.
// See doc.go for complete package documentation.
package shard

import "sync/atomic"

// OperationStats tracks per-operation counters for a shard, using atomic
// counters so readers never contend with the hot request path.
type OperationStats struct {
	Gets       uint64
	Puts       uint64
	TxnStarts  uint64
	TxnPuts    uint64
	TxnGets    uint64
	TxnCommits uint64
	TxnAborts  uint64
}

func (s *OperationStats) addGet()       { atomic.AddUint64(&s.Gets, 1) }
func (s *OperationStats) addPut()       { atomic.AddUint64(&s.Puts, 1) }
func (s *OperationStats) addTxnPut()    { atomic.AddUint64(&s.TxnPuts, 1) }
func (s *OperationStats) addTxnGet()    { atomic.AddUint64(&s.TxnGets, 1) }
func (s *OperationStats) addTxnCommit() { atomic.AddUint64(&s.TxnCommits, 1) }
func (s *OperationStats) addTxnAbort()  { atomic.AddUint64(&s.TxnAborts, 1) }

// Snapshot returns a point-in-time copy of the counters.
func (s *OperationStats) Snapshot() OperationStats {
	return OperationStats{
		Gets:       atomic.LoadUint64(&s.Gets),
		Puts:       atomic.LoadUint64(&s.Puts),
		TxnStarts:  atomic.LoadUint64(&s.TxnStarts),
		TxnPuts:    atomic.LoadUint64(&s.TxnPuts),
		TxnGets:    atomic.LoadUint64(&s.TxnGets),
		TxnCommits: atomic.LoadUint64(&s.TxnCommits),
		TxnAborts:  atomic.LoadUint64(&s.TxnAborts),
	}
}
