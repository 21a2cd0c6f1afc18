package main

import (
	"bufio"
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/dreamware/torua/internal/wire"
)

// serveShard answers exactly one PUT/GET request on conn, matching what a
// shard server would reply for single-shot client traffic.
func serveShard(t *testing.T, ln net.Listener, data map[uint32][]byte) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	req, err := wire.RecvClientRequest(br)
	if err != nil || len(req.Ops) == 0 {
		return
	}
	op := req.Ops[0]
	var reply wire.ServerReply
	switch op.Type {
	case wire.OpPut:
		data[op.Key] = op.Value
		reply = wire.ServerReply{Value: op.Value, Success: true}
	case wire.OpGet:
		if v, ok := data[op.Key]; ok {
			reply = wire.ServerReply{Value: v, Success: true}
		} else {
			reply = wire.ServerReply{Value: []byte(wire.NotFound), Success: true}
		}
	}
	wire.SendServerReply(conn, reply)
}

func shardPort(t *testing.T, ln net.Listener) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return port
}

func TestRunDirectPutThenGet(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	data := make(map[uint32][]byte)
	port := shardPort(t, ln)

	go serveShard(t, ln, data)
	code := run([]string{"-p", strconv.Itoa(port), "-o", "PUT", "-k", "7", "-v", "hello", "-d", "1"}, os.Stdout, os.Stderr)
	if code != exitOK {
		t.Fatalf("PUT exit code = %d, want %d", code, exitOK)
	}

	go serveShard(t, ln, data)
	code = run([]string{"-p", strconv.Itoa(port), "-o", "GET", "-k", "7", "-d", "1"}, os.Stdout, os.Stderr)
	if code != exitOK {
		t.Fatalf("GET exit code = %d, want %d", code, exitOK)
	}
}

func TestRunDirectGetMissingKey(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := shardPort(t, ln)

	go serveShard(t, ln, make(map[uint32][]byte))
	code := run([]string{"-p", strconv.Itoa(port), "-o", "GET", "-k", "99", "-d", "1"}, os.Stdout, os.Stderr)
	if code != exitNotFound {
		t.Fatalf("exit code = %d, want %d", code, exitNotFound)
	}
}

func TestRunRejectsBadOperation(t *testing.T) {
	code := run([]string{"-p", "1", "-o", "WAT", "-k", "1", "-d", "1"}, os.Stdout, os.Stderr)
	if code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
}

func TestRunDirectRequiresPort(t *testing.T) {
	code := run([]string{"-o", "GET", "-k", "1", "-d", "1"}, os.Stdout, os.Stderr)
	if code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
}

// serveMasterThenShard plays the master's asymmetric first-contact reply
// (spec §4.4): read one op, reply with an INIT op whose Port names shardPort.
func serveMasterThenShard(t *testing.T, ln net.Listener, shardPort int) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	if _, err := wire.RecvClientRequest(br); err != nil {
		return
	}
	reply := wire.ClientRequest{Ops: []wire.Op{
		wire.Op{Type: wire.OpInit}.WithPort(int32(shardPort)),
	}}
	wire.SendClientRequest(conn, reply)
}

func TestRunViaMaster(t *testing.T) {
	shardLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen shard: %v", err)
	}
	defer shardLn.Close()

	masterLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen master: %v", err)
	}
	defer masterLn.Close()

	go serveMasterThenShard(t, masterLn, shardPort(t, shardLn))
	go serveShard(t, shardLn, make(map[uint32][]byte))

	code := run([]string{"-o", "GET", "-k", "1", "-m", strconv.Itoa(shardPort(t, masterLn)), "-d", "0"}, os.Stdout, os.Stderr)
	if code != exitNotFound {
		t.Fatalf("exit code = %d, want %d", code, exitNotFound)
	}
}
