package dag

import (
	"reflect"
	"testing"
)

func buildChain(t *testing.T, edges [][2]string, nodes ...string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n, nil)
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}

	// Duplicate edges are ignored.
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("duplicate AddEdge: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected duplicate edge to be ignored, got %d edges", g.EdgeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := New()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "missing"); err == nil {
		t.Error("expected error for missing downstream node")
	}
	if err := g.AddEdge("missing", "a"); err == nil {
		t.Error("expected error for missing upstream node")
	}
	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_ParentsAndChildren(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}, "a", "b", "c")

	if got := g.Parents("c"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Parents(c) = %v", got)
	}
	if got := g.Children("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Children(a) = %v", got)
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")
	if has, path := g.HasCycle(); has {
		t.Errorf("expected no cycle, got %v", path)
	}

	if err := g.AddEdge("c", "a"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	has, path := g.HasCycle()
	if !has {
		t.Fatal("expected cycle to be detected")
	}
	if len(path) < 2 {
		t.Errorf("expected non-trivial cycle path, got %v", path)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}}, "c", "b", "a")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestGraph_TopologicalSort_Deterministic(t *testing.T) {
	// Independent nodes must come out alphabetically regardless of
	// insertion order.
	g := buildChain(t, nil, "zeta", "alpha", "mid")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestGraph_TopologicalSort_Cycle(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "a"}}, "a", "b")
	if _, err := g.TopologicalSort(); err == nil {
		t.Error("expected cycle error")
	}
}

func TestGraph_ExecutionLevels(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d.
	g := buildChain(t, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
		"a", "b", "c", "d")

	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("ExecutionLevels: %v", err)
	}
	want := [][]string{{"a"}, {"b", "c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}
}

func TestGraph_ExecutionLevels_LongestPath(t *testing.T) {
	// d has parents a (level 0) and c (level 2); longest path wins.
	g := buildChain(t, [][2]string{{"a", "d"}, {"a", "b"}, {"b", "c"}, {"c", "d"}},
		"a", "b", "c", "d")

	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("ExecutionLevels: %v", err)
	}
	want := [][]string{{"a"}, {"b"}, {"c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}
}

func TestGraph_Descendants(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}, {"x", "y"}},
		"a", "b", "c", "x", "y")

	got := g.Descendants([]string{"a"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Descendants(a) = %v", got)
	}

	// Unknown seeds are ignored.
	if got := g.Descendants([]string{"nope"}); len(got) != 0 {
		t.Errorf("Descendants(nope) = %v, want empty", got)
	}
}

func TestGraph_Ancestors(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")

	got := g.Ancestors([]string{"c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Ancestors(c) = %v", got)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")

	sub := g.Subgraph([]string{"a", "c"})
	if sub.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", sub.NodeCount())
	}
	// The a->b->c path is broken; no direct a->c edge exists.
	if sub.EdgeCount() != 0 {
		t.Errorf("expected 0 edges, got %d", sub.EdgeCount())
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"b", "c"}}, "a", "b", "c")

	if got := g.Roots(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Roots = %v", got)
	}
	if got := g.Leaves(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Leaves = %v", got)
	}
}

func TestGraph_UpstreamMap(t *testing.T) {
	g := buildChain(t, [][2]string{{"a", "b"}, {"c", "b"}}, "a", "b", "c")

	m := g.UpstreamMap()
	if !reflect.DeepEqual(m["b"], []string{"a", "c"}) {
		t.Errorf("UpstreamMap[b] = %v", m["b"])
	}
	if len(m["a"]) != 0 {
		t.Errorf("UpstreamMap[a] = %v, want empty", m["a"])
	}
}
