// Package workload parses trace files and reproduces the transactional
// workload they describe, either as a flat stream of commands (line traces)
// or as a dependency-respecting DAG of command groups (DAG traces), plus an
// oracle that enumerates every KV state reachable under a legal topological
// interleaving of the DAG's ready set.
//
// The DAG is stored as a flat arena (Graph.Nodes) addressed by integer
// index rather than as nodes holding shared references to their
// successors. A node becomes ready when every predecessor's in-degree
// contribution has been consumed — consuming a node walks its Next
// indices and decrements each successor's pending-dependency count,
// pushing it onto the ready queue once that count reaches zero. This
// replaces a reference-counted "destruction republishes successors"
// scheme with an explicit decrement, which is the only form of it that
// survives a language without destructors run on last-reference-drop.
package workload
