package workload

// Node is one arena entry in a Graph: a group of commands that either runs
// as a unit (IsTxn true, or ID 0, the root sentinel) or is a pure
// observation the oracle does not apply. Next holds arena indices of this
// node's successors, the flattened form of "depends_on" edges.
type Node struct {
	ID    uint64
	IsTxn bool
	Cmds  []Cmd
	Next  []int
	indeg int
}

// Graph is a transaction DAG stored as a flat arena. NewGraph builds the
// arena and the initial ready queue (in-degree 0 roots) from an
// id-keyed node map plus each node's DependsOn list; consume advances the
// graph by applying one ready node and pushing any successor whose
// in-degree just reached zero.
type Graph struct {
	Nodes   []Node
	ready   []int
	pending int // nodes not yet consumed
}

// NodeInput is the caller-facing shape for NewGraph: one entry per DAG
// node plus its dependency list, keyed by the trace's own node IDs.
type NodeInput struct {
	ID        uint64
	IsTxn     bool
	Cmds      []Cmd
	DependsOn []uint64
}

// NewGraph builds a Graph's arena and wires Next/indeg from DependsOn
// edges. Order of inputs does not matter; indices in the returned Graph
// are assigned in input order.
func NewGraph(inputs []NodeInput) *Graph {
	g := &Graph{
		Nodes:   make([]Node, len(inputs)),
		pending: len(inputs),
	}
	idxOf := make(map[uint64]int, len(inputs))
	for i, in := range inputs {
		idxOf[in.ID] = i
		g.Nodes[i] = Node{ID: in.ID, IsTxn: in.IsTxn, Cmds: in.Cmds}
	}
	for i, in := range inputs {
		for _, dep := range in.DependsOn {
			depIdx, ok := idxOf[dep]
			if !ok {
				continue
			}
			g.Nodes[depIdx].Next = append(g.Nodes[depIdx].Next, i)
			g.Nodes[i].indeg++
		}
	}
	for i := range g.Nodes {
		if g.Nodes[i].indeg == 0 {
			g.ready = append(g.ready, i)
		}
	}
	return g
}

// clone makes an independent copy of the graph's mutable scheduling state
// (ready queue and per-node in-degree) for the oracle's deep-copy-per-
// branch exploration. Node content (Cmds, Next, ID, IsTxn) is immutable
// once built and is shared, not copied.
func (g *Graph) clone() *Graph {
	out := &Graph{
		Nodes:   make([]Node, len(g.Nodes)),
		ready:   append([]int(nil), g.ready...),
		pending: g.pending,
	}
	copy(out.Nodes, g.Nodes)
	return out
}

// Done reports whether every node has been consumed.
func (g *Graph) Done() bool {
	return len(g.ready) == 0 && g.pending == 0
}

// consume removes node idx from the ready queue, applies it against state
// if it mutates state (IsTxn or ID 0), and pushes any successor whose
// in-degree just reached zero onto the ready queue.
func (g *Graph) consume(pos int, state State, prompt Prompter) {
	idx := g.ready[pos]
	g.ready = append(g.ready[:pos], g.ready[pos+1:]...)
	g.pending--

	node := g.Nodes[idx]
	if node.IsTxn || node.ID == 0 {
		for _, cmd := range node.Cmds {
			apply(state, cmd, prompt)
		}
	}
	for _, next := range node.Next {
		g.Nodes[next].indeg--
		if g.Nodes[next].indeg == 0 {
			g.ready = append(g.ready, next)
		}
	}
}

// GetPossibleResults enumerates every KV state reachable by running graph
// to completion under some legal topological order of its ready set: when
// exactly one node is ready, it is forced and the search continues; when
// several are ready, each is tried first in its own branch (graph and
// state both cloned), and the union of every branch's leaf states is
// returned. Only nodes with IsTxn set, or ID 0, mutate state — others are
// pure observations and do not fork the result set on their own.
func GetPossibleResults(graph *Graph, prompt Prompter) []State {
	return possibleResults(graph.clone(), State{}, prompt)
}

func possibleResults(g *Graph, state State, prompt Prompter) []State {
	for {
		if len(g.ready) == 0 {
			return []State{state}
		}
		if len(g.ready) > 1 {
			break
		}
		g.consume(0, state, prompt)
	}

	var results []State
	for i := range g.ready {
		branch := g.clone()
		branchState := state.Clone()
		branch.consume(i, branchState, prompt)
		results = append(results, possibleResults(branch, branchState, prompt)...)
	}
	return results
}
