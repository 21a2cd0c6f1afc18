package master

import (
	"net"
	"sync"

	"github.com/dreamware/torua/internal/wire"
)

// redistribute runs the master-side half of a shard join: it sets
// manageBlock, notifies every shard except the newest with a TXN_START
// control op, then — for each notified shard — hands its connection to the
// ordinary connection dispatcher (handleConnection) on a dedicated
// goroutine so the incoming stream of reinsert PUTs is routed exactly like
// any other client traffic. All of those goroutines are awaited via
// WaitGroup before manageBlock clears, so nothing observes a half-drained
// shard population.
func (s *Server) redistribute() {
	s.manageBlock.Store(true)
	defer s.manageBlock.Store(false)

	indices := s.Shards.IndicesExceptNewest()
	var wg sync.WaitGroup
	for _, index := range indices {
		addr, ok := s.Shards.AddrFor(index)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(index int, addr string) {
			defer wg.Done()
			s.notifyAndDrain(index, addr)
		}(index, addr)
	}
	wg.Wait()
}

func (s *Server) notifyAndDrain(index int, addr string) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		s.logger.Printf("redistribution: dial shard %d at %s: %v", index, addr, err)
		return
	}

	trigger := wire.ClientRequest{Ops: []wire.Op{{Type: wire.OpTxnStart}}}
	if err := wire.SendClientRequest(conn, trigger); err != nil {
		s.logger.Printf("redistribution: notify shard %d at %s: %v", index, addr, err)
		conn.Close()
		return
	}
	s.logger.Printf("redistribution: notified shard %d at %s, draining reinserts", index, addr)

	// From here the connection carries an ordinary stream of client PUTs
	// (the shard reinserting its snapshot); handleConnection drains it
	// until the shard closes the socket, which is this goroutine's signal
	// that the shard has finished streaming out.
	s.handleConnection(conn)
}
