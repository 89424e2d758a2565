/*
graph.go Undirected node/cable graph of a distribution network. Nodes are stored in
an arena and referenced by index; adjacency lists keep cable enumeration order.
*/

package topology

import (
	"errors"
	"fmt"

	"github.com/ohowland/lvnet/internal/pkg/network"
)

// Adjacent is one end of a cable as seen from a node.
type Adjacent struct {
	Cable    int // position of the cable in the input slice
	Neighbor int // arena index of the node on the other end
}

// Graph is an undirected multigraph over node identifiers.
type Graph struct {
	ids           []string
	index         map[string]int
	adjacencyList [][]Adjacent
}

// NewGraph returns an empty graph.
func NewGraph() Graph {
	return Graph{index: make(map[string]int)}
}

// Build assembles the graph of a network. Cables with an endpoint that is not a known
// node are skipped, as are repeated node identifiers after the first.
func Build(nodes []network.Node, cables []network.Cable) Graph {
	g := NewGraph()
	for _, n := range nodes {
		_ = g.AddNode(n.ID)
	}
	for i, c := range cables {
		_ = g.AddEdge(i, c.NodeAID, c.NodeBID)
	}
	return g
}

// AddNode appends a node to the arena.
func (g *Graph) AddNode(id string) error {
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("node %q already exists in graph", id)
	}
	g.index[id] = len(g.ids)
	g.ids = append(g.ids, id)
	g.adjacencyList = append(g.adjacencyList, nil)
	return nil
}

// AddEdge links two nodes in both directions.
func (g *Graph) AddEdge(cable int, a, b string) error {
	ia, ok := g.index[a]
	if !ok {
		return fmt.Errorf("start node %q does not exist in graph", a)
	}
	ib, ok := g.index[b]
	if !ok {
		return fmt.Errorf("end node %q does not exist in graph", b)
	}

	g.adjacencyList[ia] = append(g.adjacencyList[ia], Adjacent{Cable: cable, Neighbor: ib})
	g.adjacencyList[ib] = append(g.adjacencyList[ib], Adjacent{Cable: cable, Neighbor: ia})
	return nil
}

// Len is the number of nodes.
func (g Graph) Len() int {
	return len(g.ids)
}

// Index returns the arena position of a node identifier.
func (g Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ID returns the identifier stored at arena position i.
func (g Graph) ID(i int) string {
	return g.ids[i]
}

// Edges returns the adjacency list of the node at arena position i.
func (g Graph) Edges(i int) []Adjacent {
	if i < 0 || i >= len(g.adjacencyList) {
		return nil
	}
	return g.adjacencyList[i]
}

// ErrUnknownRoot is returned when the tree root is not a node of the graph.
var ErrUnknownRoot = errors.New("root node does not exist in graph")
