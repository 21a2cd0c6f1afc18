package shard

import (
	"fmt"
	"net"

	"github.com/dreamware/torua/internal/wire"
)

// streamOutAndReset is the source-shard half of redistribution: snapshot
// the current map, reset it immediately, then for each (k, v) in the
// snapshot, push it back into the cluster via the master's client-entry
// path — using the very connection the TXN_START trigger arrived on, since
// the master is listening on the other end of it for exactly this stream.
func (s *Server) streamOutAndReset(masterConn net.Conn) {
	snapshot := s.Store.Reset()
	for key, value := range snapshot {
		if err := s.reinsert(masterConn, key, value); err != nil {
			s.logger.Printf("redistribution: reinsert key %d: %v", key, err)
		}
	}
}

// reinsert replays one (key, value) pair through the master exactly as an
// external client would: send a PUT, receive the master's INIT{port}
// routing reply, connect to the owning shard, and send the PUT there.
func (s *Server) reinsert(masterConn net.Conn, key uint32, value []byte) error {
	put := wire.ClientRequest{Ops: []wire.Op{
		wire.Op{Type: wire.OpPut, Key: key}.WithValue(value),
	}}
	if err := wire.SendClientRequest(masterConn, put); err != nil {
		return fmt.Errorf("put to master: %w", err)
	}

	route, err := wire.RecvClientRequest(masterConn)
	if err != nil {
		return fmt.Errorf("recv route: %w", err)
	}
	if len(route.Ops) == 0 || route.Ops[0].Type != wire.OpInit {
		return fmt.Errorf("unexpected routing reply")
	}
	port := route.Ops[0].Port

	addr := fmt.Sprintf("%s:%d", s.PeerHost, port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial owner %s: %w", addr, err)
	}
	defer conn.Close()

	if err := wire.SendClientRequest(conn, put); err != nil {
		return fmt.Errorf("put to owner: %w", err)
	}
	reply, err := wire.RecvServerReply(conn)
	if err != nil {
		return fmt.Errorf("recv owner reply: %w", err)
	}
	if !reply.Success {
		return fmt.Errorf("owner rejected put")
	}
	return nil
}
