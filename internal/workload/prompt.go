package workload

import (
	"bufio"
	"fmt"
	"io"
)

// StdPrompter implements Prompter over arbitrary reader/writer streams:
// print "CMD: <op> <key>", then block for a single integer acknowledgement.
type StdPrompter struct {
	Out io.Writer
	In  *bufio.Reader
}

// NewStdPrompter wraps out/in as a Prompter. in is wrapped in a bufio.Reader
// internally.
func NewStdPrompter(out io.Writer, in io.Reader) *StdPrompter {
	return &StdPrompter{Out: out, In: bufio.NewReader(in)}
}

// Prompt writes the diagnostic line and scans one integer acknowledgement.
// A malformed or absent acknowledgement is treated as 0 (failure).
func (p *StdPrompter) Prompt(op OpType, key uint32) int {
	fmt.Fprintf(p.Out, "CMD: %s %d\n", op, key)
	var ack int
	if _, err := fmt.Fscan(p.In, &ack); err != nil {
		return 0
	}
	return ack
}
