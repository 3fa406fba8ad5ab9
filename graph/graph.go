// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Validation errors.
var (
	// ErrCycle indicates the graph contains a dependency cycle.
	ErrCycle = errors.New("graph: cycle detected")

	// ErrNoRoot indicates the graph has no root node set.
	ErrNoRoot = errors.New("graph: no root node")

	// ErrDanglingInput indicates a node references a producer id that is
	// not present in the graph.
	ErrDanglingInput = errors.New("graph: input references unknown node")

	// ErrDuplicateNode indicates two nodes share an id.
	ErrDuplicateNode = errors.New("graph: duplicate node id")
)

// Graph is the full per-frame DAG of render nodes.
//
// A graph is assembled once per output frame — typically by a timeline
// compiler stitching compiled feature fragments together with compositing
// and color-transform nodes — executed, and discarded. Nodes are never
// mutated after insertion.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID // insertion order, for deterministic iteration
	root  NodeID
}

// New creates an empty render graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// Add inserts a node. Adding a second node with the same id fails.
func (g *Graph) Add(n *Node) error {
	if n == nil || n.ID == "" {
		return errors.New("graph: nil or unidentified node")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddFragment inserts every node of a compiled fragment.
func (g *Graph) AddFragment(f *Fragment) error {
	for _, n := range f.Nodes {
		if err := g.Add(n); err != nil {
			return err
		}
	}
	return nil
}

// SetRoot declares the graph's single root node.
func (g *Graph) SetRoot(id NodeID) {
	g.root = id
}

// Root returns the root node id.
func (g *Graph) Root() NodeID {
	return g.root
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, len(g.order))
	copy(ids, g.order)
	return ids
}

// Replace swaps a node for a rewritten copy with the same id. This is the
// only sanctioned "mutation": expansion rewrites (feature nodes replaced by
// their compiled subgraphs) build a new node and swap it in wholesale.
func (g *Graph) Replace(n *Node) error {
	if _, exists := g.nodes[n.ID]; !exists {
		return fmt.Errorf("graph: replace of unknown node %q", n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// Validate checks the graph's structural invariants: the root is set and
// present, every input reference resolves, the graph is acyclic, and no
// node other than the root is left without a consumer.
func (g *Graph) Validate() error {
	if g.root == "" {
		return ErrNoRoot
	}
	if g.nodes[g.root] == nil {
		return fmt.Errorf("%w: root %q not in graph", ErrNoRoot, g.root)
	}

	consumers := make(map[NodeID]int, len(g.nodes))
	for _, id := range g.order {
		n := g.nodes[id]
		for name, src := range n.Inputs {
			if g.nodes[src] == nil {
				return fmt.Errorf("%w: node %q input %q -> %q", ErrDanglingInput, n.ID, name, src)
			}
			consumers[src]++
		}
	}

	for _, id := range g.order {
		if id != g.root && consumers[id] == 0 {
			return fmt.Errorf("graph: node %q is unreachable from the root", id)
		}
	}

	return g.checkAcyclic()
}

// checkAcyclic peels zero-out-degree-towards-deps nodes Kahn-style.
// Remaining nodes after peeling participate in a cycle.
func (g *Graph) checkAcyclic() error {
	indeg := make(map[NodeID]int, len(g.nodes))
	dependents := make(map[NodeID][]NodeID, len(g.nodes))

	for _, id := range g.order {
		n := g.nodes[id]
		seen := make(map[NodeID]bool, len(n.Inputs))
		for _, src := range n.Inputs {
			if seen[src] {
				continue // two named inputs from one producer is one edge
			}
			seen[src] = true
			indeg[id]++
			dependents[src] = append(dependents[src], id)
		}
	}

	queue := make([]NodeID, 0, len(g.nodes))
	for _, id := range g.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, dep := range dependents[id] {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if processed != len(g.nodes) {
		remaining := make([]string, 0)
		for _, id := range g.order {
			if indeg[id] > 0 {
				remaining = append(remaining, string(id))
			}
		}
		sort.Strings(remaining)
		return fmt.Errorf("%w: involving %v", ErrCycle, remaining)
	}
	return nil
}

// Consumers returns, for every node, how many distinct consumer edges point
// at it from nodes reachable from the root. The executor uses these counts
// to return pooled outputs as soon as the last consumer has read them.
func (g *Graph) Consumers() map[NodeID]int {
	counts := make(map[NodeID]int, len(g.nodes))
	if g.nodes[g.root] == nil {
		return counts
	}

	visited := make(map[NodeID]bool, len(g.nodes))
	stack := []NodeID{g.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n := g.nodes[id]
		if n == nil {
			continue
		}
		for _, src := range n.Inputs {
			counts[src]++
			stack = append(stack, src)
		}
	}
	return counts
}

// Fragment is a compiled slice of a graph: the nodes emitted for one
// feature plus the id of the node producing the feature's final output.
// Fragments are spliced into a Graph by the assembler.
type Fragment struct {
	// Nodes holds the emitted nodes in scheduled order.
	Nodes []*Node

	// Root is the id of the last scheduled node; consumers of the feature
	// wire their inputs to it.
	Root NodeID
}
