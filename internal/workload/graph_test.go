package workload

import (
	"os"
	"sort"
	"testing"
)

func stateKey1(s State) string { return s[1] }

func TestGetPossibleResultsScenario(t *testing.T) {
	// spec §8 scenario 5, loaded from the YAML fixture.
	f, err := os.Open("testdata/oracle_scenario.yaml")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	inputs, err := ParseYAMLTrace(f)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	graph := NewGraph(inputs)

	results := GetPossibleResults(graph, nil)
	got := make([]string, 0, len(results))
	for _, r := range results {
		got = append(got, stateKey1(r))
	}
	sort.Strings(got)

	want := []string{"3", "4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGraphSingleChainForcesSequentially(t *testing.T) {
	inputs := []NodeInput{
		{ID: 0, IsTxn: true, Cmds: []Cmd{{Op: OpPut, Key: 1, Value: []byte("1")}}},
		{ID: 1, IsTxn: true, DependsOn: []uint64{0}, Cmds: []Cmd{{Op: OpAdd, Key: 1, Value: valueKeyBytes(1)}}},
	}
	graph := NewGraph(inputs)
	results := GetPossibleResults(graph, nil)
	if len(results) != 1 {
		t.Fatalf("expected exactly one outcome for a linear chain, got %d", len(results))
	}
	if got := results[0][1]; got != "2" {
		t.Fatalf("k1 = %q, want \"2\"", got)
	}
}

func TestConsumeDecrementsInDegree(t *testing.T) {
	inputs := []NodeInput{
		{ID: 0, IsTxn: true, Cmds: []Cmd{{Op: OpPut, Key: 1, Value: []byte("x")}}},
		{ID: 1, IsTxn: true, DependsOn: []uint64{0}, Cmds: []Cmd{{Op: OpPut, Key: 2, Value: []byte("y")}}},
	}
	g := NewGraph(inputs)
	if len(g.ready) != 1 || g.ready[0] != 0 {
		t.Fatalf("expected only node 0 ready initially, got %v", g.ready)
	}
	state := State{}
	g.consume(0, state, nil)
	if len(g.ready) != 1 || g.ready[0] != 1 {
		t.Fatalf("expected node 1 to become ready after node 0 consumed, got %v", g.ready)
	}
	if g.pending != 1 {
		t.Fatalf("pending = %d, want 1", g.pending)
	}
}

func valueKeyBytes(k uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(k)
	b[1] = byte(k >> 8)
	b[2] = byte(k >> 16)
	b[3] = byte(k >> 24)
	return b
}
