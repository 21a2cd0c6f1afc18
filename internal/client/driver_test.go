package client

import (
	"bufio"
	"net"
	"testing"

	"github.com/dreamware/torua/internal/wire"
	"github.com/dreamware/torua/internal/workload"
)

// serveEchoShard is a minimal stand-in for internal/shard.Server: it reads
// one ClientRequest at a time and answers PUT/GET against a private map,
// just enough for the driver's replay-then-verify cycle to round-trip
// correctly without standing up the full shard dispatcher.
func serveEchoShard(t *testing.T, conn net.Conn) {
	t.Helper()
	data := make(map[uint32][]byte)
	br := bufio.NewReader(conn)
	for {
		req, err := wire.RecvClientRequest(br)
		if err != nil {
			return
		}
		if len(req.Ops) == 0 {
			continue
		}
		op := req.Ops[0]
		switch op.Type {
		case wire.OpInit:
			continue
		case wire.OpPut:
			data[op.Key] = op.Value
			if err := wire.SendServerReply(conn, wire.ServerReply{Value: op.Value, Success: true}); err != nil {
				return
			}
		case wire.OpGet:
			v, ok := data[op.Key]
			reply := wire.ServerReply{Success: true}
			if ok {
				reply.Value = v
			} else {
				reply.Value = []byte(wire.NotFound)
			}
			if err := wire.SendServerReply(conn, reply); err != nil {
				return
			}
		default:
			if err := wire.SendServerReply(conn, wire.ServerReply{Success: false}); err != nil {
				return
			}
		}
	}
}

func TestDriverRunAgainstFakeServer(t *testing.T) {
	// A minimal hand-rolled fake server avoids standing up the full shard
	// dispatcher just to exercise the driver's own protocol discipline:
	// read INIT, then echo back a success reply for every subsequent op.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serveEchoShard(t, conn)
	}()

	d := &Driver{
		Addr:     ln.Addr().String(),
		NThreads: 1,
		Messages: 3,
		Trace: []workload.LineCmd{
			{Op: workload.OpPut, Key: 1},
			{Op: workload.OpPut, Key: 2},
			{Op: workload.OpGet, Key: 1},
		},
	}
	results, err := d.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Replies != 3 {
		t.Fatalf("results = %+v, want 1 result with 3 replies", results)
	}
}
