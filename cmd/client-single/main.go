// Package main implements client-single, a one-shot GET or PUT client.
//
// Usage:
//
//	client-single -p PORT -o OPERATION -k KEY -v VALUE -m MASTER_PORT -d DIRECT
//
// When DIRECT is 0 the client first asks the master which shard owns KEY
// and dials that shard; when DIRECT is 1 it dials PORT itself, skipping the
// master entirely.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/dreamware/torua/internal/wire"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const (
	exitOK       = 0
	exitError    = 1
	exitNotFound = 2
)

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("client-single", flag.ContinueOnError)
	fs.SetOutput(stderr)
	port := fs.Int("p", 0, "PORT: target server port (DIRECT=1 only)")
	op := fs.String("o", "", "OPERATION: GET or PUT")
	key := fs.Uint("k", 0, "KEY: key for the operation")
	value := fs.String("v", "", "VALUE: value for the operation (PUT only)")
	masterPort := fs.Int("m", 0, "MASTER_PORT: port the master listens on")
	direct := fs.Int("d", 0, "DIRECT: 1 to talk to the server at PORT directly, 0 to go via the master")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if *op != "GET" && *op != "PUT" {
		fmt.Fprintf(stderr, "operation must be GET or PUT\n")
		return exitError
	}
	if *direct == 1 && *port == 0 {
		fmt.Fprintf(stderr, "PORT is required when DIRECT=1\n")
		return exitError
	}

	opType := wire.OpGet
	clientOp := wire.Op{Type: wire.OpGet, Key: uint32(*key)}
	if *op == "PUT" {
		opType = wire.OpPut
		clientOp = wire.Op{Type: opType, Key: uint32(*key)}.WithValue([]byte(*value))
	}

	serverPort := *port
	if *direct == 0 {
		p, err := resolveShard(*masterPort, clientOp)
		if err != nil {
			fmt.Fprintf(stderr, "resolve shard: %v\n", err)
			return exitError
		}
		serverPort = p
	}

	reply, err := sendOp(serverPort, clientOp)
	if err != nil {
		fmt.Fprintf(stderr, "send op: %v\n", err)
		return exitError
	}

	if string(reply.Value) == wire.NotFound {
		fmt.Fprintf(stdout, "NOT-FOUND\n")
		return exitNotFound
	}
	if !reply.Success {
		return exitError
	}
	fmt.Fprintf(stdout, "%s\n", reply.Value)
	return exitOK
}

// resolveShard asks the master which port owns clientOp's key. The master's
// first-contact reply is itself a ClientRequest payload carrying a single
// INIT op whose Port is the shard's listen port, not a ServerReply.
func resolveShard(masterPort int, clientOp wire.Op) (int, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", masterPort))
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if err := wire.SendClientRequest(conn, wire.ClientRequest{Ops: []wire.Op{clientOp}}); err != nil {
		return 0, err
	}
	reply, err := wire.RecvClientRequest(conn)
	if err != nil {
		return 0, err
	}
	if len(reply.Ops) == 0 {
		return 0, fmt.Errorf("master sent an empty reply")
	}
	return int(reply.Ops[0].Port), nil
}

func sendOp(port int, op wire.Op) (wire.ServerReply, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return wire.ServerReply{}, err
	}
	defer conn.Close()

	if err := wire.SendClientRequest(conn, wire.ClientRequest{Ops: []wire.Op{op}}); err != nil {
		return wire.ServerReply{}, err
	}
	return wire.RecvServerReply(conn)
}
