package workload

import (
	"bytes"
	"io"
	"testing"
)

func sampleDAGInputs() []NodeInput {
	return []NodeInput{
		{
			ID:    0,
			IsTxn: true,
			Cmds: []Cmd{
				{Op: OpPut, Key: 1, Value: []byte("2")},
				{Op: OpPut, Key: 9, Value: []byte("9")},
			},
		},
		{
			ID:        1,
			IsTxn:     true,
			DependsOn: []uint64{0},
			Cmds: []Cmd{
				{Op: OpAdd, Key: 1, Value: []byte{9, 0, 0, 0}},
				{Op: OpGet, Key: 1},
			},
		},
		{
			ID:        2,
			IsTxn:     false,
			DependsOn: []uint64{0, 1},
			Cmds:      nil,
		},
	}
}

func TestDAGTraceRoundTrip(t *testing.T) {
	want := sampleDAGInputs()
	encoded := EncodeDAGTrace(want)

	got, err := ParseDAGTrace(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("ParseDAGTrace: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.IsTxn != w.IsTxn {
			t.Fatalf("node %d: got %+v, want %+v", i, g, w)
		}
		if len(g.DependsOn) != len(w.DependsOn) {
			t.Fatalf("node %d: depends_on = %v, want %v", i, g.DependsOn, w.DependsOn)
		}
		for j := range w.DependsOn {
			if g.DependsOn[j] != w.DependsOn[j] {
				t.Fatalf("node %d dep %d: got %d, want %d", i, j, g.DependsOn[j], w.DependsOn[j])
			}
		}
		if len(g.Cmds) != len(w.Cmds) {
			t.Fatalf("node %d: cmds = %v, want %v", i, g.Cmds, w.Cmds)
		}
		for j := range w.Cmds {
			gc, wc := g.Cmds[j], w.Cmds[j]
			if gc.Op != wc.Op || gc.Key != wc.Key || !bytes.Equal(gc.Value, wc.Value) {
				t.Fatalf("node %d cmd %d: got %+v, want %+v", i, j, gc, wc)
			}
		}
	}
}

func TestDAGTraceFeedsGraph(t *testing.T) {
	encoded := EncodeDAGTrace(sampleDAGInputs())
	inputs, err := ParseDAGTrace(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("ParseDAGTrace: %v", err)
	}
	graph := NewGraph(inputs)
	results := GetPossibleResults(graph, nil)
	if len(results) != 1 {
		t.Fatalf("results = %v, want exactly one reachable state", results)
	}
	if results[0][1] != "11" {
		t.Fatalf("state[1] = %q, want \"11\"", results[0][1])
	}
}

func TestDAGTraceEmpty(t *testing.T) {
	inputs, err := ParseDAGTrace(bytes.NewReader(EncodeDAGTrace(nil)))
	if err != nil {
		t.Fatalf("ParseDAGTrace(empty): %v", err)
	}
	if len(inputs) != 0 {
		t.Fatalf("inputs = %v, want empty", inputs)
	}
}

func TestDAGTraceTruncated(t *testing.T) {
	full := EncodeDAGTrace(sampleDAGInputs())
	_, err := ParseDAGTrace(bytes.NewReader(full[:len(full)-3]))
	if err == nil {
		t.Fatal("expected an error decoding a truncated trace")
	}
	if err == io.EOF {
		t.Fatalf("expected a wrapped, contextual error, got bare io.EOF")
	}
}
