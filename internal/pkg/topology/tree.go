package topology

import (
	"fmt"

	"github.com/ohowland/lvnet/internal/pkg/network"
)

const none = -1

// Tree is the radial reduction of a Graph, rooted at the source node.
type Tree struct {
	graph    Graph
	root     int
	parent   []int
	children [][]int
	order    []int // breadth first discovery order
}

// BuildTree runs a breadth first search from the node rootID. The neighbor from
// which a node is first discovered becomes its parent; ties follow cable enumeration
// order. Nodes that cannot be reached from the root get no parent.
func BuildTree(g Graph, rootID string) (Tree, error) {
	root, ok := g.Index(rootID)
	if !ok {
		return Tree{}, fmt.Errorf("%w: %q", ErrUnknownRoot, rootID)
	}

	parent := make([]int, g.Len())
	visited := make([]bool, g.Len())
	for i := range parent {
		parent[i] = none
	}

	order := make([]int, 0, g.Len())
	queue := []int{root}
	visited[root] = true
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, edge := range g.Edges(u) {
			if !visited[edge.Neighbor] {
				visited[edge.Neighbor] = true
				parent[edge.Neighbor] = u
				queue = append(queue, edge.Neighbor)
			}
		}
	}

	children := make([][]int, g.Len())
	for _, v := range order[1:] {
		children[parent[v]] = append(children[parent[v]], v)
	}

	return Tree{
		graph:    g,
		root:     root,
		parent:   parent,
		children: children,
		order:    order,
	}, nil
}

// Reduce builds the graph of a network and its tree rooted at the single source.
func Reduce(nodes []network.Node, cables []network.Cable) (Tree, error) {
	src, err := network.SourceOf(nodes)
	if err != nil {
		return Tree{}, err
	}
	return BuildTree(Build(nodes, cables), src.ID)
}

// Graph returns the graph the tree was derived from.
func (t Tree) Graph() Graph {
	return t.graph
}

// Root is the identifier of the tree root.
func (t Tree) Root() string {
	return t.graph.ID(t.root)
}

// Reachable reports whether id belongs to the tree.
func (t Tree) Reachable(id string) bool {
	i, ok := t.graph.Index(id)
	if !ok {
		return false
	}
	return i == t.root || t.parent[i] != none
}

// Parent returns the parent of id. The root and unreachable nodes have none.
func (t Tree) Parent(id string) (string, bool) {
	i, ok := t.graph.Index(id)
	if !ok || t.parent[i] == none {
		return "", false
	}
	return t.graph.ID(t.parent[i]), true
}

// Children returns the children of id in discovery order.
func (t Tree) Children(id string) []string {
	i, ok := t.graph.Index(id)
	if !ok {
		return nil
	}
	ids := make([]string, len(t.children[i]))
	for k, c := range t.children[i] {
		ids[k] = t.graph.ID(c)
	}
	return ids
}

// ChildIndices returns the arena indices of the children of the node at position i.
func (t Tree) ChildIndices(i int) []int {
	return t.children[i]
}

// PostOrder lists the arena indices of the reachable nodes, every child before its
// parent. The traversal is iterative so deep feeders cannot exhaust the stack.
func (t Tree) PostOrder() []int {
	type frame struct {
		node, next int
	}

	out := make([]int, 0, len(t.order))
	stack := []frame{{node: t.root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(t.children[top.node]) {
			child := t.children[top.node][top.next]
			top.next++
			stack = append(stack, frame{node: child})
			continue
		}
		out = append(out, top.node)
		stack = stack[:len(stack)-1]
	}
	return out
}

// EdgeKind tells whether a cable belongs to the derived tree.
type EdgeKind int

const (
	// TreeEdge cables link a node to its parent; the distal node is exact.
	TreeEdge EdgeKind = iota
	// NonTreeEdge cables close a loop or sit outside the tree; the distal node is the
	// second endpoint by convention and the result is an approximation.
	NonTreeEdge
)

func (k EdgeKind) String() string {
	if k == TreeEdge {
		return "tree"
	}
	return "non-tree"
}

// EdgeClass is the outcome of the distal node decision for one cable.
type EdgeClass struct {
	Kind   EdgeKind
	Distal string
}

// Approximate reports whether the distal node was chosen by convention.
func (c EdgeClass) Approximate() bool {
	return c.Kind == NonTreeEdge
}

// Classify finds the downstream endpoint of a cable between nodeA and nodeB.
func (t Tree) Classify(nodeA, nodeB string) EdgeClass {
	if p, ok := t.Parent(nodeB); ok && p == nodeA {
		return EdgeClass{Kind: TreeEdge, Distal: nodeB}
	}
	if p, ok := t.Parent(nodeA); ok && p == nodeB {
		return EdgeClass{Kind: TreeEdge, Distal: nodeA}
	}
	return EdgeClass{Kind: NonTreeEdge, Distal: nodeB}
}
