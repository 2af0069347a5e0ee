// Package dag provides the directed acyclic graph over model names used by
// planning and impact analysis. It supports cycle detection, deterministic
// topological sorting, descendant/ancestor closures and parallel execution
// levels. Edges point upstream -> downstream.
package dag

import (
	"fmt"
	"sort"

	"github.com/tidemark-data/tidemark/pkg/core"
)

// Graph is a directed graph over model names. It is not safe for concurrent
// mutation; once built it is read-only and safe to share.
type Graph struct {
	nodes    map[string]*core.ModelDefinition
	children map[string][]string // upstream -> downstream
	parents  map[string][]string // downstream -> upstream
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*core.ModelDefinition),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a model node. Re-adding an existing node updates its
// definition but keeps its edges.
func (g *Graph) AddNode(name string, def *core.ModelDefinition) {
	if _, ok := g.nodes[name]; !ok {
		g.children[name] = []string{}
		g.parents[name] = []string{}
	}
	g.nodes[name] = def
}

// AddEdge adds a directed edge from upstream to downstream. Both nodes must
// exist and self-loops are rejected. Duplicate edges are ignored.
func (g *Graph) AddEdge(upstream, downstream string) error {
	if _, ok := g.nodes[upstream]; !ok {
		return fmt.Errorf("upstream node %q does not exist", upstream)
	}
	if _, ok := g.nodes[downstream]; !ok {
		return fmt.Errorf("downstream node %q does not exist", downstream)
	}
	if upstream == downstream {
		return fmt.Errorf("self-loop detected: %s", upstream)
	}
	if !contains(g.children[upstream], downstream) {
		g.children[upstream] = append(g.children[upstream], downstream)
	}
	if !contains(g.parents[downstream], upstream) {
		g.parents[downstream] = append(g.parents[downstream], upstream)
	}
	return nil
}

// HasNode reports whether the model exists in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Node returns the model definition stored for a node.
func (g *Graph) Node(name string) (*core.ModelDefinition, bool) {
	def, ok := g.nodes[name]
	return def, ok
}

// Parents returns the direct upstream models of a node, sorted.
func (g *Graph) Parents(name string) []string {
	return sortedCopy(g.parents[name])
}

// Children returns the direct downstream models of a node, sorted.
func (g *Graph) Children(name string) []string {
	return sortedCopy(g.children[name])
}

// Names returns all node names, sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, c := range g.children {
		count += len(c)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, along with one
// offending path. Detection is iterative (explicit stack, no recursion).
func (g *Graph) HasCycle() (bool, []string) {
	const (
		white = 0 // unvisited
		gray  = 1 // on stack
		black = 2 // done
	)
	color := make(map[string]int, len(g.nodes))
	parentOf := make(map[string]string, len(g.nodes))

	type frame struct {
		node string
		next int
	}

	for _, start := range g.Names() {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		color[start] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := g.children[top.node]
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				switch color[child] {
				case white:
					color[child] = gray
					parentOf[child] = top.node
					stack = append(stack, frame{node: child})
				case gray:
					// Reconstruct the cycle path child -> ... -> child.
					cycle := []string{child}
					for curr := top.node; curr != child; curr = parentOf[curr] {
						cycle = append([]string{curr}, cycle...)
					}
					cycle = append([]string{child}, cycle...)
					return true, cycle
				}
				continue
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}
	return false, nil
}

// TopologicalSort returns model names in dependency order (upstream before
// downstream). Ties break alphabetically, so the order is deterministic.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = len(g.parents[name])
	}

	var ready []string
	for _, name := range g.Names() {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		// Smallest name first for a deterministic order.
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		result = append(result, next)
		for _, child := range g.children[next] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(result) != len(g.nodes) {
		_, path := g.HasCycle()
		return nil, fmt.Errorf("cycle detected: %v", path)
	}
	return result, nil
}

// ExecutionLevels groups model names by longest-path distance from any
// source node. Level 0 holds nodes with no parents; nodes at level N can run
// in parallel once level N-1 completed. Returns an error on cycles.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	level := make(map[string]int, len(g.nodes))
	maxLevel := 0
	for _, name := range order {
		l := 0
		for _, parent := range g.parents[name] {
			if level[parent]+1 > l {
				l = level[parent] + 1
			}
		}
		level[name] = l
		if l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, name := range order {
		levels[level[name]] = append(levels[level[name]], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Descendants returns all transitive downstream models of the given seeds,
// including the seeds themselves, sorted. Seeds missing from the graph are
// ignored. Traversal uses an explicit work queue with a visited set, so
// diamonds and residual cycles cannot loop.
func (g *Graph) Descendants(seeds []string) []string {
	return g.closure(seeds, g.children)
}

// Ancestors returns all transitive upstream models of the given seeds,
// including the seeds themselves, sorted.
func (g *Graph) Ancestors(seeds []string) []string {
	return g.closure(seeds, g.parents)
}

func (g *Graph) closure(seeds []string, adjacency map[string][]string) []string {
	visited := make(map[string]bool)
	var queue []string
	for _, s := range seeds {
		if _, ok := g.nodes[s]; ok && !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[curr] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	result := make([]string, 0, len(visited))
	for name := range visited {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Subgraph returns a new graph induced by the given node names, keeping only
// edges whose endpoints are both included.
func (g *Graph) Subgraph(names []string) *Graph {
	sub := New()
	included := make(map[string]bool, len(names))
	for _, name := range names {
		if def, ok := g.nodes[name]; ok {
			included[name] = true
			sub.AddNode(name, def)
		}
	}
	for name := range included {
		for _, child := range g.children[name] {
			if included[child] {
				_ = sub.AddEdge(name, child)
			}
		}
	}
	return sub
}

// Roots returns nodes with no parents, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		if len(g.parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns nodes with no children, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.nodes {
		if len(g.children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// UpstreamMap returns a name -> sorted upstream names map covering every
// node, the simplified adjacency form consumed by the impact analyzer.
func (g *Graph) UpstreamMap() map[string][]string {
	m := make(map[string][]string, len(g.nodes))
	for name := range g.nodes {
		m[name] = sortedCopy(g.parents[name])
	}
	return m
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
