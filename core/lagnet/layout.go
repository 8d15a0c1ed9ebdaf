package lagnet

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/huangsam/symnet/schema"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// Default layout parameters.
const (
	DefaultLayoutIterations = 100
	DefaultLayoutSeed       = 42
	DefaultRepulsion        = 1.0
	DefaultRate             = 0.05
	DefaultTheta            = 0.2
)

// LayoutOptions configures the force-directed placement.
type LayoutOptions struct {
	Iterations int
	Seed       uint64
	Repulsion  float64
	Rate       float64
	Theta      float64
}

// DefaultLayoutOptions returns the standard seeded layout settings.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Iterations: DefaultLayoutIterations,
		Seed:       DefaultLayoutSeed,
		Repulsion:  DefaultRepulsion,
		Rate:       DefaultRate,
		Theta:      DefaultTheta,
	}
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	if o.Iterations <= 0 {
		o.Iterations = DefaultLayoutIterations
	}
	if o.Repulsion <= 0 {
		o.Repulsion = DefaultRepulsion
	}
	if o.Rate <= 0 {
		o.Rate = DefaultRate
	}
	if o.Theta <= 0 {
		o.Theta = DefaultTheta
	}
	return o
}

// orderedUndirected iterates nodes and neighbours by ascending ID so that the
// seeded layout is reproducible.
type orderedUndirected struct {
	*simple.WeightedUndirectedGraph
}

func (g orderedUndirected) Nodes() graph.Nodes {
	return sortedNodes(g.WeightedUndirectedGraph.Nodes())
}

func (g orderedUndirected) From(id int64) graph.Nodes {
	return sortedNodes(g.WeightedUndirectedGraph.From(id))
}

type orderedDirected struct {
	*simple.DirectedGraph
}

func (g orderedDirected) Nodes() graph.Nodes {
	return sortedNodes(g.DirectedGraph.Nodes())
}

func (g orderedDirected) From(id int64) graph.Nodes {
	return sortedNodes(g.DirectedGraph.From(id))
}

func (g orderedDirected) To(id int64) graph.Nodes {
	return sortedNodes(g.DirectedGraph.To(id))
}

func sortedNodes(it graph.Nodes) graph.Nodes {
	nodes := graph.NodesOf(it)
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID(), b.ID()) })
	return iterator.NewOrderedNodes(nodes)
}

// Plan computes a deterministic 2D placement and per-node connectivity statistics.
// Coordinates are normalized into [-1, 1].
func Plan(n *Network, opts LayoutOptions) []schema.NodeLayout {
	opts = opts.withDefaults()
	index := make(map[string]int, len(n.Nodes))
	out := make([]schema.NodeLayout, len(n.Nodes))
	for i, name := range n.Nodes {
		index[name] = i
		out[i].Name = name
	}

	undirected := orderedUndirected{simple.NewWeightedUndirectedGraph(0, 0)}
	directed := orderedDirected{simple.NewDirectedGraph()}
	for i := range n.Nodes {
		undirected.AddNode(simple.Node(i))
		directed.AddNode(simple.Node(i))
	}

	for _, e := range n.Edges {
		s, t := index[e.Source], index[e.Target]
		w := math.Abs(e.Weight)
		out[s].OutDegree++
		out[s].OutStrength += w
		out[t].InDegree++
		out[t].InStrength += w
		if s == t {
			continue
		}
		directed.SetEdge(directed.NewEdge(simple.Node(s), simple.Node(t)))
		if prev, ok := undirected.Weight(int64(s), int64(t)); ok {
			w += prev
		}
		undirected.SetWeightedEdge(undirected.NewWeightedEdge(simple.Node(s), simple.Node(t), w))
	}
	for i := range out {
		out[i].Degree = out[i].InDegree + out[i].OutDegree
	}

	positions := place(undirected, len(n.Nodes), opts)
	for i, p := range positions {
		out[i].X, out[i].Y = p.X, p.Y
	}

	for id, b := range network.Betweenness(directed) {
		out[id].Betweenness = b
	}
	return out
}

// place runs the Eades spring embedder and normalizes the result.
func place(g orderedUndirected, count int, opts LayoutOptions) []r2.Vec {
	pos := make([]r2.Vec, count)
	if count <= 1 {
		return pos
	}

	eades := layout.EadesR2{
		Updates:   opts.Iterations,
		Repulsion: opts.Repulsion,
		Rate:      opts.Rate,
		Theta:     opts.Theta,
		Src:       rand.NewPCG(opts.Seed, opts.Seed),
	}
	optimizer := layout.NewOptimizerR2(g, eades.Update)
	for optimizer.Update() {
	}
	for i := range pos {
		pos[i] = optimizer.Coord2(int64(i))
	}

	if !normalize(pos) {
		return circle(count)
	}
	return pos
}

// normalize centers positions on their mean and scales them into [-1, 1].
// It returns false when the positions are degenerate.
func normalize(pos []r2.Vec) bool {
	var mean r2.Vec
	for _, p := range pos {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
		mean = r2.Add(mean, p)
	}
	mean = r2.Scale(1/float64(len(pos)), mean)

	var extent float64
	for i, p := range pos {
		pos[i] = r2.Sub(p, mean)
		extent = max(extent, math.Abs(pos[i].X), math.Abs(pos[i].Y))
	}
	if extent == 0 || math.IsInf(extent, 0) {
		return false
	}
	for i := range pos {
		pos[i] = r2.Scale(1/extent, pos[i])
	}
	return true
}

// circle places count nodes evenly on the unit circle, starting at angle zero.
func circle(count int) []r2.Vec {
	pos := make([]r2.Vec, count)
	for i := range pos {
		a := 2 * math.Pi * float64(i) / float64(count)
		pos[i] = r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
	}
	return pos
}
