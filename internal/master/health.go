package master

import (
	"context"
	"log"
	"net"
	"time"
)

// probeInterval and probeDialTimeout are the liveness probe's cadence:
// every 10 seconds, with a 3-second connect timeout per shard.
const (
	probeInterval    = 10 * time.Second
	probeDialTimeout = 3 * time.Second
)

// LivenessProbe periodically dials every known shard and removes the ones
// that don't answer within probeDialTimeout. It does not trigger
// redistribution — joins are the only redistribution trigger.
type LivenessProbe struct {
	shards *ShardMap
	logger *log.Logger
	dial   func(addr string, timeout time.Duration) error

	cancel context.CancelFunc
}

// NewLivenessProbe constructs a probe over shards. logger may be nil.
func NewLivenessProbe(shards *ShardMap, logger *log.Logger) *LivenessProbe {
	if logger == nil {
		logger = log.Default()
	}
	return &LivenessProbe{
		shards: shards,
		logger: logger,
		dial:   dialCheck,
	}
}

func dialCheck(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Start runs the probe loop until ctx is cancelled or Stop is called.
func (p *LivenessProbe) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	ticker := time.NewTicker(probeInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.checkAll()
			}
		}
	}()
}

// Stop halts the probe loop.
func (p *LivenessProbe) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *LivenessProbe) checkAll() {
	for index, addr := range p.shards.All() {
		if err := p.dial(addr, probeDialTimeout); err != nil {
			n := p.shards.Remove(index)
			p.logger.Printf("shard %d at %s unreachable, removed (N=%d)", index, addr, n)
		}
	}
}
