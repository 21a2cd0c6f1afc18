// Package main implements client-bench, a multi-threaded load driver that
// replays a line trace against a shard and verifies the results.
//
// Usage:
//
//	client-bench -c C_THREADS -s HOSTNAME -p PORT -m N_MESSAGES -t TRACE
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dreamware/torua/internal/client"
	"github.com/dreamware/torua/internal/workload"
)

func main() {
	fs := flag.NewFlagSet("client-bench", flag.ExitOnError)
	cThreads := fs.Int("c", 0, "C_THREADS: number of client threads")
	hostname := fs.String("s", "", "HOSTNAME: server hostname")
	port := fs.Int("p", 0, "PORT: server port")
	nMessages := fs.Int("m", 0, "N_MESSAGES: number of messages per thread")
	tracePath := fs.String("t", "", "TRACE: path to a line trace file")
	fs.Parse(os.Args[1:])

	results, err := run(*cThreads, *hostname, *port, *nMessages, *tracePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	for _, r := range results {
		log.Printf("client %d: %d replies, %d puts", r.ClientID, r.Replies, r.Puts)
	}
	fmt.Println("** all threads joined **")
}

// run validates flags, loads the trace file, and drives it against addr
// host:port with cThreads workers each sending nMessages requests.
func run(cThreads int, hostname string, port, nMessages int, tracePath string) ([]*client.Result, error) {
	if cThreads <= 0 {
		return nil, fmt.Errorf("missing or invalid -c (C_THREADS)")
	}
	if hostname == "" {
		return nil, fmt.Errorf("missing -s (HOSTNAME)")
	}
	if port == 0 {
		return nil, fmt.Errorf("missing -p (PORT)")
	}
	if nMessages <= 0 {
		return nil, fmt.Errorf("missing or invalid -m (N_MESSAGES)")
	}
	if tracePath == "" {
		return nil, fmt.Errorf("missing -t (TRACE)")
	}

	f, err := os.Open(tracePath)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	trace := workload.ParseLineTrace(f, workload.DefaultReadPermille, nil)
	if len(trace) == 0 {
		return nil, fmt.Errorf("trace file is empty")
	}

	d := &client.Driver{
		Addr:     fmt.Sprintf("%s:%d", hostname, port),
		NThreads: cThreads,
		Messages: nMessages,
		Trace:    trace,
	}
	return d.Run()
}
