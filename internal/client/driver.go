package client

import (
	"bufio"
	"fmt"
	"math/rand"
	"net"

	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/wire"
	"github.com/dreamware/torua/internal/workload"
)

// clientBasePort is the synthetic port value announced in a worker's INIT
// op — vestigial now that no reverse listener exists, kept only so the
// handshake looks like the one a real reply-socket client would send.
const clientBasePort = 20000

const randValueLen = 64

// Config parameterizes one worker goroutine.
type Config struct {
	Addr     string
	ClientID int
	Trace    []workload.LineCmd
	Messages int
	Rand     *rand.Rand // value generator source; a fresh one is used if nil
}

// Result summarizes one worker's run.
type Result struct {
	ClientID int
	Replies  int
	Puts     int
}

// Driver runs NThreads workers against Addr, splitting Trace into
// contiguous per-thread slices the way client_2.cpp's `step := len(traces)
// / nb_clients` does.
type Driver struct {
	Addr     string
	NThreads int
	Messages int
	Trace    []workload.LineCmd
}

// Run starts all workers, barrier-synchronizes their start and their
// post-verification shutdown, and returns one Result per worker. The first
// error encountered by any worker is returned alongside whatever partial
// results are available.
func (d *Driver) Run() ([]*Result, error) {
	start := NewBarrier(d.NThreads)
	terminate := NewBarrier(d.NThreads)

	results := make([]*Result, d.NThreads)
	errs := make([]error, d.NThreads)
	done := make(chan int, d.NThreads)

	step := len(d.Trace) / d.NThreads
	for i := 0; i < d.NThreads; i++ {
		lo := step * i
		hi := lo + step
		if i == d.NThreads-1 {
			hi = len(d.Trace)
		}
		cfg := Config{
			Addr:     d.Addr,
			ClientID: i,
			Trace:    d.Trace[lo:hi],
			Messages: d.Messages,
		}
		go func(id int, cfg Config) {
			res, err := RunWorker(cfg, start, terminate)
			results[id] = res
			errs[id] = err
			done <- id
		}(i, cfg)
	}
	for range d.NThreads {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// RunWorker is one client thread's full lifecycle: connect, announce via
// INIT, wait at start, replay Messages trace entries against the same
// connection, verify its local mirror against the server, then wait at
// terminate.
func RunWorker(cfg Config, start, terminate *Barrier) (*Result, error) {
	// A worker that fails early still arrives at both barriers, so the
	// other workers are never left waiting on it.
	started, terminated := false, false
	defer func() {
		if !started {
			start.Wait()
		}
		if !terminated {
			terminate.Wait()
		}
	}()

	conn, err := net.Dial("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("client %d: dial %s: %w", cfg.ClientID, cfg.Addr, err)
	}
	defer conn.Close()

	initReq := wire.ClientRequest{Ops: []wire.Op{
		wire.Op{Type: wire.OpInit}.WithPort(int32(clientBasePort + cfg.ClientID)),
	}}
	if err := wire.SendClientRequest(conn, initReq); err != nil {
		return nil, fmt.Errorf("client %d: send init: %w", cfg.ClientID, err)
	}

	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(int64(cfg.ClientID) + 1))
	}
	mirror := kv.NewStore(nil)
	br := bufio.NewReader(conn)
	res := &Result{ClientID: cfg.ClientID}

	start.Wait()
	started = true

	for i := 0; i < cfg.Messages && len(cfg.Trace) > 0; i++ {
		cmd := cfg.Trace[i%len(cfg.Trace)]
		var op wire.Op
		if cmd.Op == workload.OpGet {
			op = wire.Op{Type: wire.OpGet, Key: cmd.Key}
		} else {
			value := []byte(randString(rnd, randValueLen))
			op = wire.Op{Type: wire.OpPut, Key: cmd.Key}.WithValue(value)
			mirror.Put(cmd.Key, value)
			res.Puts++
		}
		req := wire.ClientRequest{Ops: []wire.Op{op}}
		if err := wire.SendClientRequest(conn, req); err != nil {
			return res, fmt.Errorf("client %d: send op: %w", cfg.ClientID, err)
		}
		if _, err := wire.RecvServerReply(br); err != nil {
			return res, fmt.Errorf("client %d: recv reply: %w", cfg.ClientID, err)
		}
		res.Replies++
	}

	if err := verifyAll(conn, br, mirror); err != nil {
		return res, err
	}

	terminate.Wait()
	terminated = true
	return res, nil
}

// verifyAll replays every key this worker wrote against its local mirror,
// issuing one GET per key and failing fast on the first mismatch.
func verifyAll(conn net.Conn, br *bufio.Reader, mirror *kv.Store) error {
	mirror.InitIter()
	for {
		key, ok := mirror.NextKey()
		if !ok {
			return nil
		}
		want, _ := mirror.Get(key)

		req := wire.ClientRequest{Ops: []wire.Op{{Type: wire.OpGet, Key: key}}}
		if err := wire.SendClientRequest(conn, req); err != nil {
			return fmt.Errorf("verify key %d: send: %w", key, err)
		}
		reply, err := wire.RecvServerReply(br)
		if err != nil {
			return fmt.Errorf("verify key %d: recv: %w", key, err)
		}
		if string(reply.Value) != string(want) {
			return fmt.Errorf("%w: key %d: got %q, want %q", ErrVerificationMismatch, key, reply.Value, want)
		}
	}
}

const valueCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func randString(rnd *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = valueCharset[rnd.Intn(len(valueCharset))]
	}
	return string(b)
}
