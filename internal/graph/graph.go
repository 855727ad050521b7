package graph

import (
	"fmt"

	"tfscope/pkg/logging"
)

type edge struct {
	src     int
	srcPort string
	dst     int
	dstPort string
}

// Graph owns a set of named nodes and the typed edges between their ports.
// Execution is pull-based: reading an output of a dirty graph triggers a full
// topological pass. Nodes are stored in insertion order, which also breaks
// ties in the topological sort so results are reproducible.
type Graph struct {
	nodes []Node
	index map[string]int
	edges []edge

	// deps counts edges per (dst, src) pair. A dependency is dropped only
	// when the last edge between the two nodes is removed.
	deps map[int]map[int]int

	dirty  bool
	logger logging.Logger
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		index:  make(map[string]int),
		deps:   make(map[int]map[int]int),
		logger: logging.WithFields(logging.Fields{"component": "graph"}),
	}
}

// AddNode registers a node under its name. Fails with DUPLICATE_NAME when the
// name is already taken.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.index[n.Name()]; exists {
		return NewGraphError(ErrCodeDuplicateName, n.Name(),
			"a node with this name already exists", nil)
	}
	g.index[n.Name()] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.dirty = true
	return nil
}

// Node looks up a node by name
func (g *Graph) Node(name string) (Node, bool) {
	idx, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// Connect adds the typed edge (src, srcPort) -> (dst, dstPort). Each input
// port accepts at most one feeder and edges may not introduce a cycle.
func (g *Graph) Connect(src, srcPort, dst, dstPort string) error {
	srcIdx, err := g.lookup(src)
	if err != nil {
		return err
	}
	dstIdx, err := g.lookup(dst)
	if err != nil {
		return err
	}

	srcKind, ok := g.nodes[srcIdx].OutputPorts()[srcPort]
	if !ok {
		return NewGraphError(ErrCodeValidation, src,
			fmt.Sprintf("no output port %q", srcPort), nil)
	}
	dstKind, ok := g.nodes[dstIdx].InputPorts()[dstPort]
	if !ok {
		return NewGraphError(ErrCodeValidation, dst,
			fmt.Sprintf("no input port %q", dstPort), nil)
	}
	if srcKind != dstKind {
		return NewGraphError(ErrCodeValidation, dst,
			fmt.Sprintf("port kinds disagree: %s.%s is %s, %s.%s is %s",
				src, srcPort, srcKind, dst, dstPort, dstKind), nil)
	}

	for _, e := range g.edges {
		if e.dst == dstIdx && e.dstPort == dstPort {
			return &GraphError{
				Code:    ErrCodePortOccupied,
				Node:    dst,
				Port:    dstPort,
				Message: fmt.Sprintf("input port %q already has a feeder", dstPort),
			}
		}
	}

	if srcIdx == dstIdx || g.reachable(dstIdx, srcIdx) {
		return NewGraphError(ErrCodeCycleIntroduced, dst,
			fmt.Sprintf("edge %s -> %s would close a cycle", src, dst), nil)
	}

	g.edges = append(g.edges, edge{src: srcIdx, srcPort: srcPort, dst: dstIdx, dstPort: dstPort})
	if g.deps[dstIdx] == nil {
		g.deps[dstIdx] = make(map[int]int)
	}
	g.deps[dstIdx][srcIdx]++
	g.dirty = true
	return nil
}

// RemoveConnection removes a previously added edge. The dependency between
// the two nodes is dropped only when no other edge joins them; downstream
// nodes are marked dirty.
func (g *Graph) RemoveConnection(src, srcPort, dst, dstPort string) error {
	srcIdx, err := g.lookup(src)
	if err != nil {
		return err
	}
	dstIdx, err := g.lookup(dst)
	if err != nil {
		return err
	}

	for i, e := range g.edges {
		if e.src != srcIdx || e.srcPort != srcPort || e.dst != dstIdx || e.dstPort != dstPort {
			continue
		}
		g.edges = append(g.edges[:i], g.edges[i+1:]...)
		g.deps[dstIdx][srcIdx]--
		if g.deps[dstIdx][srcIdx] <= 0 {
			delete(g.deps[dstIdx], srcIdx)
		}
		g.nodes[dstIdx].markDirty()
		g.markDescendantsDirty(dstIdx)
		g.dirty = true
		return nil
	}
	return NewGraphError(ErrCodeValidation, dst,
		fmt.Sprintf("no connection %s.%s -> %s.%s", src, srcPort, dst, dstPort), nil)
}

// Dependencies returns the names of the direct upstream nodes of name, in
// node insertion order
func (g *Graph) Dependencies(name string) ([]string, error) {
	idx, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := range g.nodes {
		if g.deps[idx][i] > 0 {
			out = append(out, g.nodes[i].Name())
		}
	}
	return out, nil
}

// Dirty reports whether any execution is pending
func (g *Graph) Dirty() bool {
	return g.dirty
}

// Invalidate forces a full pass on the next output read
func (g *Graph) Invalidate() {
	g.dirty = true
}

// SetNodeParameter sets a parameter on the named node and marks every
// descendant dirty so the next pass recomputes the affected subgraph
func (g *Graph) SetNodeParameter(name, param string, v Value) error {
	idx, err := g.lookup(name)
	if err != nil {
		return err
	}
	if err := g.nodes[idx].SetParameter(param, v); err != nil {
		return err
	}
	g.markDescendantsDirty(idx)
	g.dirty = true
	return nil
}

// SetNodeInput sets an input on the named node and marks every descendant dirty
func (g *Graph) SetNodeInput(name, port string, v Value) error {
	idx, err := g.lookup(name)
	if err != nil {
		return err
	}
	if err := g.nodes[idx].SetInput(port, v); err != nil {
		return err
	}
	g.markDescendantsDirty(idx)
	g.dirty = true
	return nil
}

// Execute runs every node once in topological order. For each node the
// incoming edge values are propagated first, then the node executes if dirty.
// A node failure aborts the pass; upstream outputs stay valid and the graph
// remains dirty.
func (g *Graph) Execute() error {
	order, err := g.topologicalOrder()
	if err != nil {
		return err
	}

	for _, idx := range order {
		n := g.nodes[idx]
		for _, e := range g.edges {
			if e.dst != idx {
				continue
			}
			v, err := g.nodes[e.src].Output(e.srcPort)
			if err != nil {
				return err
			}
			n.setInputFromEdge(e.dstPort, v)
		}
		if n.Dirty() {
			if err := n.Execute(); err != nil {
				g.logger.Error(err, "node execution failed",
					logging.Fields{"node": n.Name()})
				return err
			}
		}
	}
	g.dirty = false
	return nil
}

// NodeOutput executes the graph if dirty, then returns the named output
func (g *Graph) NodeOutput(name, port string) (Value, error) {
	idx, err := g.lookup(name)
	if err != nil {
		return Value{}, err
	}
	if g.dirty {
		if err := g.Execute(); err != nil {
			return Value{}, err
		}
	}
	return g.nodes[idx].Output(port)
}

// topologicalOrder implements Kahn's algorithm. Ties between ready nodes are
// broken by insertion order; a leftover node means the edge set has a cycle.
func (g *Graph) topologicalOrder() ([]int, error) {
	indegree := make([]int, len(g.nodes))
	for _, e := range g.edges {
		indegree[e.dst]++
	}

	emitted := make([]bool, len(g.nodes))
	order := make([]int, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := -1
		for i := range g.nodes {
			if !emitted[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, NewGraphError(ErrCodeCycleDetected, "",
				"graph contains a cycle", nil)
		}
		emitted[next] = true
		order = append(order, next)
		for _, e := range g.edges {
			if e.src == next {
				indegree[e.dst]--
			}
		}
	}
	return order, nil
}

// markDescendantsDirty marks every node reachable from idx dirty, keeping
// their last outputs in place until they re-execute
func (g *Graph) markDescendantsDirty(idx int) {
	seen := make([]bool, len(g.nodes))
	stack := []int{idx}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges {
			if e.src != cur || seen[e.dst] {
				continue
			}
			seen[e.dst] = true
			g.nodes[e.dst].markDirty()
			stack = append(stack, e.dst)
		}
	}
}

// reachable reports whether to can be reached from from over existing edges
func (g *Graph) reachable(from, to int) bool {
	seen := make([]bool, len(g.nodes))
	stack := []int{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range g.edges {
			if e.src == cur && !seen[e.dst] {
				stack = append(stack, e.dst)
			}
		}
	}
	return false
}

func (g *Graph) lookup(name string) (int, error) {
	idx, ok := g.index[name]
	if !ok {
		return 0, NewGraphError(ErrCodeUnknownNode, name,
			"node is not part of the graph", nil)
	}
	return idx, nil
}
