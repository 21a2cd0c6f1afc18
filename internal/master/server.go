package master

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreamware/torua/internal/wire"
)

// dispatchIdleDelay is the poll interval the dispatcher sleeps for while
// manageBlock is set.
const dispatchIdleDelay = 5 * time.Millisecond

// readTimeout bounds how long a connection may sit idle before the
// dispatcher gives up on it and moves on.
const readTimeout = 3 * time.Second

// Server is the master coordinator: the shard map, the started flag, the
// redistribution orchestrator, and (optionally) the liveness probe.
type Server struct {
	ListenAddr string
	Probe      bool

	Shards *ShardMap

	started     atomic.Bool
	manageBlock atomic.Bool

	logger *log.Logger
	probe  *LivenessProbe

	mu       sync.Mutex
	listener net.Listener
}

// NewServer constructs a master Server.
func NewServer(listenAddr string, enableProbe bool) *Server {
	s := &Server{
		ListenAddr: listenAddr,
		Probe:      enableProbe,
		Shards:     NewShardMap(),
		logger:     log.New(os.Stderr, "master: ", log.LstdFlags),
	}
	s.probe = NewLivenessProbe(s.Shards, s.logger)
	return s
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens and dispatches until ctx is cancelled. It blocks.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return fmt.Errorf("master: listen %s: %w", s.ListenAddr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	if s.Probe {
		s.probe.Start(ctx)
		defer s.probe.Stop()
	}

	queue := make(chan net.Conn, 64)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				close(queue)
				return
			}
			queue <- conn
		}
	}()

	for conn := range queue {
		for s.manageBlock.Load() {
			time.Sleep(dispatchIdleDelay)
		}
		s.handleConnection(conn)
	}
	return nil
}

// handleConnection drains one or more framed ClientRequests from conn until
// it closes. It is also reused, unchanged, to drain a shard's reinsert
// stream during redistribution (see redistribute.go) — from the master's
// point of view that stream is just an ordinary sequence of PUT client ops
// arriving on a connection it happens to have dialed itself instead of
// accepted.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		req, err := wire.RecvClientRequest(conn)
		if err != nil {
			return
		}
		if len(req.Ops) == 0 {
			continue
		}
		op := req.Ops[0]

		if op.Type == wire.OpInit {
			s.handleInit(conn, op)
			continue
		}

		s.started.Store(true)
		var port int32 // 0 means no shard is registered to own this key yet
		if owner, ok := s.Shards.Owner(op.Key); ok {
			if addr, ok := s.Shards.AddrFor(owner); ok {
				port = portFromAddr(addr)
			}
		}
		reply := wire.ClientRequest{Ops: []wire.Op{wire.Op{Type: wire.OpInit}.WithPort(port)}}
		if err := wire.SendClientRequest(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) handleInit(conn net.Conn, op wire.Op) {
	host := hostOf(conn.RemoteAddr())
	addr := fmt.Sprintf("%s:%d", host, op.Port)
	index, n := s.Shards.Register(addr)
	s.logger.Printf("shard %d registered at %s (N=%d)", index, addr, n)

	if s.started.Load() {
		s.logger.Printf("---redistribution---")
		s.redistribute()
		s.started.Store(false)
	}
}

func hostOf(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return tcp.IP.String()
}

func portFromAddr(addr string) int32 {
	idx := strings.LastIndexByte(addr, ':')
	if idx < 0 {
		return 0
	}
	var port int32
	fmt.Sscanf(addr[idx+1:], "%d", &port)
	return port
}
