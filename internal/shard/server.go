package shard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/wire"
)

// readTimeout is the per-connection idle timeout applied before peeking for
// the next frame.
const readTimeout = 3 * time.Second

// Server is one shard: a listener, a bounded worker pool, and the kv.Store
// those workers dispatch requests against.
type Server struct {
	ListenAddr string
	MasterAddr string
	// PeerHost is the address other shards and the master are reached at,
	// independent of ListenAddr's bind address. Defaults to "127.0.0.1".
	PeerHost string
	Workers  int

	Store *kv.Store
	Stats OperationStats

	logger *log.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer constructs a Server. workers <= 0 defaults to 4.
func NewServer(listenAddr, masterAddr string, workers int, backing kv.Backing) *Server {
	if workers <= 0 {
		workers = 4
	}
	return &Server{
		ListenAddr: listenAddr,
		MasterAddr: masterAddr,
		PeerHost:   "127.0.0.1",
		Workers:    workers,
		Store:      kv.NewStore(backing),
		logger:     log.New(os.Stderr, "shard: ", log.LstdFlags),
	}
}

// Run registers with the master, then listens and serves until ctx is
// cancelled or the listener fails. It blocks.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return fmt.Errorf("shard: listen %s: %w", s.ListenAddr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	if err := s.registerWithMaster(); err != nil {
		s.logger.Printf("registration failed: %v", err)
	}

	queue := make(chan net.Conn, s.Workers*4)
	var wg sync.WaitGroup
	for i := 0; i < s.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range queue {
				s.handleConn(conn)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			close(queue)
			wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		queue <- conn
	}
}

// Addr returns the listener's actual bound address, useful when ListenAddr
// used port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// registerWithMaster opens a client-style connection to the master, sends
// INIT{port=own listen port}, then closes the socket immediately.
func (s *Server) registerWithMaster() error {
	if s.MasterAddr == "" {
		return nil
	}
	conn, err := net.Dial("tcp", s.MasterAddr)
	if err != nil {
		return fmt.Errorf("dial master %s: %w", s.MasterAddr, err)
	}
	defer conn.Close()

	port := portOf(s.Addr())
	req := wire.ClientRequest{Ops: []wire.Op{
		wire.Op{Type: wire.OpInit}.WithPort(port),
	}}
	return wire.SendClientRequest(conn, req)
}

func portOf(addr net.Addr) int32 {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return int32(tcp.Port)
	}
	return 0
}

// handleConn drains zero or more framed requests from conn until it is idle
// for readTimeout or the peer closes it: peek one byte with a timeout, then
// decode and dispatch one request.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, err := br.Peek(1); err != nil {
			return
		}

		req, err := wire.RecvClientRequest(br)
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("parse error on %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if len(req.Ops) == 0 {
			continue
		}

		op := req.Ops[0]
		if op.Type == wire.OpTxnStart {
			// Control signal: stream this shard's contents out for
			// redistribution, then this connection is done.
			s.streamOutAndReset(conn)
			return
		}
		if op.Type == wire.OpInit {
			// A client's INIT announcement expects no reply on this
			// connection; the client's first reply is for its first op.
			continue
		}

		reply := s.dispatch(op)
		if err := wire.SendServerReply(conn, reply); err != nil {
			s.logger.Printf("send error on %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// dispatch applies op to the store and builds the reply.
func (s *Server) dispatch(op wire.Op) wire.ServerReply {
	switch op.Type {
	case wire.OpGet:
		s.Stats.addGet()
		v, ok := s.Store.Get(op.Key)
		if !ok {
			v = []byte(wire.NotFound)
		}
		return wire.ServerReply{Value: v, Success: true, OpID: 1}

	case wire.OpPut:
		s.Stats.addPut()
		s.Store.Put(op.Key, op.Value)
		return wire.ServerReply{Value: op.Value, Success: true, OpID: 0}

	case wire.OpTxnPut:
		s.Stats.addTxnPut()
		ok := s.Store.TxnPut(op.TxnID, op.Key, op.Value)
		return wire.ServerReply{Success: ok}

	case wire.OpTxnGet:
		s.Stats.addTxnGet()
		ok, v := s.Store.TxnGet(op.TxnID, op.Key)
		return wire.ServerReply{Value: v, Success: ok}

	case wire.OpTxnCommit:
		s.Stats.addTxnCommit()
		return wire.ServerReply{Success: s.Store.TxnCommit(op.TxnID)}

	case wire.OpTxnAbort:
		s.Stats.addTxnAbort()
		return wire.ServerReply{Success: s.Store.TxnAbort(op.TxnID)}

	case wire.OpTxnGetAndExecute:
		// Accepted on the wire for framing compatibility; no dispatch path
		// implements it, so it never succeeds.
		return wire.ServerReply{Success: false}

	default:
		return wire.ServerReply{Success: false}
	}
}
