// Package main implements the Torua master, the control plane that tracks
// shard membership, routes first-contact clients to the right shard, and
// orchestrates redistribution when a new shard joins mid-run.
//
// Configuration is CLI-flag driven rather than environment-variable driven,
// matching the external interface this binary must present:
//
//	master -p MASTER_PORT
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

	"github.com/dreamware/torua/internal/master"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	port := flag.Int("p", 0, "MASTER_PORT: port the master listens on")
	noProbe := flag.Bool("no-probe", false, "disable the 10s shard liveness probe")
	flag.Parse()

	if *port == 0 {
		logFatal("missing required flag -p (MASTER_PORT)")
		return
	}

	srv := master.NewServer(fmt.Sprintf(":%d", *port), !*noProbe)

	errCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Printf("master listening on :%d", *port)
		errCh <- srv.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		cancel()
	case err := <-errCh:
		if err != nil {
			logFatal("master: %v", err)
		}
		return
	}

	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		log.Printf("master: shutdown timed out")
	}
	log.Println("master stopped")
}
