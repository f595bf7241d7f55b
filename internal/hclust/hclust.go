// Package hclust provides the pairwise-distance and single-linkage
// hierarchical clustering used to reorder experiment rows by similarity.
// Single linkage over a complete pairwise distance matrix is equivalent to
// building the minimum spanning tree and merging its edges in ascending
// weight order, which is how the dendrogram is assembled here.
package hclust

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Metric selects the pairwise distance between observations (matrix rows).
type Metric string

const (
	Euclidean   Metric = "euclidean"
	Manhattan   Metric = "manhattan"
	Correlation Metric = "correlation"
)

// Distance computes the metric between two equal-length vectors.
func Distance(a, b []float64, metric Metric) (float64, error) {
	switch metric {
	case Euclidean, "":
		return floats.Distance(a, b, 2), nil
	case Manhattan:
		return floats.Distance(a, b, 1), nil
	case Correlation:
		r := stat.Correlation(a, b, nil)
		if math.IsNaN(r) {
			// constant vector: treat as maximally distant
			return 1, nil
		}
		return 1 - r, nil
	default:
		return 0, fmt.Errorf("hclust: unknown metric %q", metric)
	}
}

// pairwise returns the condensed upper-triangle distances of the rows of m.
func pairwise(m *mat.Dense, metric Metric) ([]edge, error) {
	n, _ := m.Dims()
	edges := make([]edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := Distance(m.RawRowView(i), m.RawRowView(j), metric)
			if err != nil {
				return nil, err
			}
			edges = append(edges, edge{i: i, j: j, w: d})
		}
	}
	return edges, nil
}

type edge struct {
	i, j int
	w    float64
}

// node is one dendrogram node; leaves have left == right == -1.
type node struct {
	leaf        int
	left, right int
}

// LeafOrder clusters the rows of m by single linkage and returns the
// dendrogram leaf order: rows that are near each other under the metric end
// up adjacent. The order is deterministic (ties broken by row index).
func LeafOrder(m *mat.Dense, metric Metric) ([]int, error) {
	if m == nil {
		return nil, nil
	}
	n, _ := m.Dims()
	if n <= 1 {
		order := make([]int, n)
		return order, nil
	}
	edges, err := pairwise(m, metric)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(edges, func(a, b int) bool {
		if edges[a].w != edges[b].w {
			return edges[a].w < edges[b].w
		}
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})

	// union-find over cluster roots; root maps to its dendrogram node
	parent := make([]int, n)
	rootNode := make([]int, n)
	nodes := make([]node, n, 2*n-1)
	for i := 0; i < n; i++ {
		parent[i] = i
		rootNode[i] = i
		nodes[i] = node{leaf: i, left: -1, right: -1}
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	merges := 0
	var top int
	for _, e := range edges {
		ri, rj := find(e.i), find(e.j)
		if ri == rj {
			continue
		}
		nodes = append(nodes, node{leaf: -1, left: rootNode[ri], right: rootNode[rj]})
		parent[rj] = ri
		rootNode[ri] = len(nodes) - 1
		top = len(nodes) - 1
		merges++
		if merges == n-1 {
			break
		}
	}

	order := make([]int, 0, n)
	var walk func(int)
	walk = func(id int) {
		nd := nodes[id]
		if nd.leaf >= 0 {
			order = append(order, nd.leaf)
			return
		}
		walk(nd.left)
		walk(nd.right)
	}
	walk(top)
	return order, nil
}
