// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scc implements Tarjan's algorithm, which condenses a directed graph
// into a DAG of strongly-connected components.
//
// The planner uses it to order a message graph leaves-first, so that a type
// is always planned after everything it references outside its own cycle.
package scc

import (
	"iter"
	"slices"

	"buf.build/go/hyperjson/internal/debug"
)

// Graph exposes the outgoing edges of a node.
type Graph[Node any] func(Node) iter.Seq[Node]

// DAG is the strongly-connected component DAG of a directed graph.
type DAG[Node comparable] struct {
	keys       map[Node]int // Index of the component each node belongs to.
	components []Component[Node]
}

// Component is a strongly-connected component.
type Component[Node comparable] struct {
	dag     *DAG[Node]
	index   int
	members []Node
	deps    []int
	cyclic  bool
}

// Sort computes the components of the subgraph reachable from root.
func Sort[Node comparable](root Node, graph Graph[Node]) *DAG[Node] {
	out := &DAG[Node]{keys: make(map[Node]int)}
	s := &tarjan[Node]{
		graph:    graph,
		dag:      out,
		metadata: make(map[Node]*metadata),
		depset:   make(map[int]struct{}),
	}
	s.rec(root)
	return out
}

// ForNode returns the component for node, or nil if node is not in the graph.
func (d *DAG[Node]) ForNode(node Node) *Component[Node] {
	idx, ok := d.keys[node]
	if !ok {
		return nil
	}
	return &d.components[idx]
}

// Topological ranges over the components, dependencies first.
func (d *DAG[Node]) Topological() iter.Seq[*Component[Node]] {
	return func(yield func(*Component[Node]) bool) {
		for i := range d.components {
			if !yield(&d.components[i]) {
				return
			}
		}
	}
}

// Len returns the number of components.
func (d *DAG[Node]) Len() int {
	return len(d.components)
}

// Members returns the members of a component.
func (c *Component[Node]) Members() []Node {
	return c.members
}

// Deps ranges over the components this one has edges into.
func (c *Component[Node]) Deps() iter.Seq[*Component[Node]] {
	return func(yield func(*Component[Node]) bool) {
		for _, i := range c.deps {
			if !yield(&c.dag.components[i]) {
				return
			}
		}
	}
}

// Index returns this component's position in topological order.
func (c *Component[Node]) Index() int {
	return c.index
}

// Cyclic returns whether this component contains a cycle, including a node
// with an edge to itself.
func (c *Component[Node]) Cyclic() bool {
	return c.cyclic
}

// tarjan is the state for Tarjan's recursive algorithm.
//
// See https://en.wikipedia.org/wiki/Tarjan%27s_strongly_connected_components_algorithm
type tarjan[Node comparable] struct {
	graph Graph[Node]
	dag   *DAG[Node]

	index    int
	stack    []Node
	metadata map[Node]*metadata

	depset map[int]struct{}
}

type metadata struct {
	index, low int
	onStack    bool
}

func (s *tarjan[Node]) rec(node Node) *metadata {
	meta := &metadata{index: s.index, low: s.index, onStack: true}
	debug.Log(nil, "rec", "%v, index: %d", node, meta.index)

	s.metadata[node] = meta
	s.index++
	offset := len(s.stack)
	s.stack = append(s.stack, node)

	for dep := range s.graph(node) {
		m := s.metadata[dep]
		if m == nil {
			m = s.rec(dep)
			meta.low = min(meta.low, m.low)
			continue
		}
		if m.onStack {
			meta.low = min(meta.low, m.index)
		}
	}

	if meta.index != meta.low {
		return meta
	}

	c := Component[Node]{
		dag:     s.dag,
		index:   len(s.dag.components),
		members: slices.Clone(s.stack[offset:]),
	}
	s.stack = s.stack[:offset]
	c.cyclic = len(c.members) > 1

	for _, node := range c.members {
		s.metadata[node].onStack = false
		s.dag.keys[node] = c.index
	}
	for _, node := range c.members {
		for dep := range s.graph(node) {
			n := s.dag.keys[dep]
			if n == c.index {
				c.cyclic = true
				continue
			}
			s.depset[n] = struct{}{}
		}
	}

	c.deps = make([]int, 0, len(s.depset))
	for i := range s.depset {
		c.deps = append(c.deps, i)
	}
	slices.Sort(c.deps)
	clear(s.depset)
	debug.Log(nil, "scc", "%v -> %v", c.members, c.deps)

	s.dag.components = append(s.dag.components, c)
	return meta
}
