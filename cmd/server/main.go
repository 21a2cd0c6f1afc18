// Package main implements the Torua shard server: the worker pool and
// kv.Store engine that a master routes client traffic to.
//
// Configuration is CLI-flag driven:
//
//	server -p PORT -m MASTER_PORT
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/shard"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	port := flag.Int("p", 0, "PORT: port this shard listens on")
	masterPort := flag.Int("m", 0, "MASTER_PORT: port the master listens on")
	workers := flag.Int("workers", 4, "size of the connection worker pool")
	flag.Parse()

	if *port == 0 {
		logFatal("missing required flag -p (PORT)")
		return
	}
	if *masterPort == 0 {
		logFatal("missing required flag -m (MASTER_PORT)")
		return
	}

	masterAddr := fmt.Sprintf("127.0.0.1:%d", *masterPort)
	srv := shard.NewServer(fmt.Sprintf(":%d", *port), masterAddr, *workers, kv.NopBacking{})

	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("shard listening on :%d (master %s)", *port, masterAddr)
		errCh <- srv.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		cancel()
	case err := <-errCh:
		if err != nil {
			logFatal("shard: %v", err)
		}
		return
	}

	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		log.Printf("shard: shutdown timed out")
	}
	log.Println("shard stopped")
}
