package main

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dreamware/torua/internal/wire"
)

func serveEchoShard(t *testing.T, ln net.Listener) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
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
		if op.Type == wire.OpInit {
			// Like the real shard, send no reply to a client's INIT.
			continue
		}
		var reply wire.ServerReply
		switch op.Type {
		case wire.OpPut:
			data[op.Key] = op.Value
			reply = wire.ServerReply{Value: op.Value, Success: true}
		case wire.OpGet:
			v, ok := data[op.Key]
			if !ok {
				v = []byte(wire.NotFound)
			}
			reply = wire.ServerReply{Value: v, Success: true}
		}
		if err := wire.SendServerReply(conn, reply); err != nil {
			return
		}
	}
}

func TestRunDrivesTraceAgainstFakeShard(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.txt")
	if err := os.WriteFile(tracePath, []byte("1\n2\n3\n"), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go serveEchoShard(t, ln)

	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	results, err := run(1, "127.0.0.1", port, 3, tracePath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1 result", results)
	}
}

func TestRunRejectsMissingFlags(t *testing.T) {
	if _, err := run(0, "", 0, 0, ""); err == nil {
		t.Fatal("expected error for missing flags")
	}
}

func TestRunRejectsEmptyTrace(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(tracePath, []byte("not a number\n"), 0o644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	if _, err := run(1, "127.0.0.1", 1, 1, tracePath); err == nil {
		t.Fatal("expected error for empty trace")
	}
}
