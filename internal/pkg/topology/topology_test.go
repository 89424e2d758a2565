package topology

import (
	"errors"
	"strconv"
	"testing"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func nodes(ids ...string) []network.Node {
	ns := make([]network.Node, len(ids))
	for i, id := range ids {
		ns[i] = network.Node{ID: id, IsSource: i == 0}
	}
	return ns
}

func cable(id, a, b string) network.Cable {
	return network.Cable{ID: id, NodeAID: a, NodeBID: b, TypeID: "t", LengthM: 10}
}

// BEGIN --- Graph Tests

func TestAddNode(t *testing.T) {
	g := NewGraph()
	assert.NilError(t, g.AddNode("a"))
	assert.NilError(t, g.AddNode("b"))
	assert.Equal(t, g.Len(), 2)

	i, ok := g.Index("b")
	assert.Assert(t, ok)
	assert.Equal(t, g.ID(i), "b")
}

func TestRejectDuplicateNode(t *testing.T) {
	g := NewGraph()
	assert.NilError(t, g.AddNode("a"))
	assert.Error(t, g.AddNode("a"), `node "a" already exists in graph`)
}

func TestAddEdgeMissingNodes(t *testing.T) {
	g := NewGraph()
	assert.NilError(t, g.AddNode("a"))

	assert.Error(t, g.AddEdge(0, "x", "a"), `start node "x" does not exist in graph`)
	assert.Error(t, g.AddEdge(0, "a", "y"), `end node "y" does not exist in graph`)
}

func TestAddEdgeIsUndirected(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.AddNode("b")
	assert.NilError(t, g.AddEdge(7, "a", "b"))

	ia, _ := g.Index("a")
	ib, _ := g.Index("b")
	assert.DeepEqual(t, g.Edges(ia), []Adjacent{{Cable: 7, Neighbor: ib}})
	assert.DeepEqual(t, g.Edges(ib), []Adjacent{{Cable: 7, Neighbor: ia}})
	assert.Assert(t, is.Nil(g.Edges(42)))
}

func TestBuildSkipsUnknownEndpoints(t *testing.T) {
	g := Build(nodes("s", "a"), []network.Cable{cable("c1", "s", "a"), cable("c2", "a", "ghost")})
	ia, _ := g.Index("a")
	assert.Assert(t, is.Len(g.Edges(ia), 1))
}

// --- END Graph Tests

func TestBuildTreeParents(t *testing.T) {
	//   s
	//  / \
	// a   b
	// |
	// c
	ns := nodes("s", "a", "b", "c")
	cs := []network.Cable{cable("1", "s", "a"), cable("2", "b", "s"), cable("3", "a", "c")}

	tree, err := Reduce(ns, cs)
	assert.NilError(t, err)
	assert.Equal(t, tree.Root(), "s")

	_, ok := tree.Parent("s")
	assert.Assert(t, !ok, "source has no parent")

	for child, want := range map[string]string{"a": "s", "b": "s", "c": "a"} {
		p, ok := tree.Parent(child)
		assert.Assert(t, ok, child)
		assert.Equal(t, p, want, child)
	}
	assert.DeepEqual(t, tree.Children("s"), []string{"a", "b"})
	assert.DeepEqual(t, tree.Children("a"), []string{"c"})
}

func TestBuildTreeTieFollowsCableOrder(t *testing.T) {
	// Loop s-a-d-b-s: d is two hops away through either a or b.
	ns := nodes("s", "a", "b", "d")
	first := []network.Cable{cable("1", "s", "a"), cable("2", "s", "b"), cable("3", "a", "d"), cable("4", "b", "d")}
	second := []network.Cable{cable("2", "s", "b"), cable("1", "s", "a"), cable("4", "b", "d"), cable("3", "a", "d")}

	tree, err := Reduce(ns, first)
	assert.NilError(t, err)
	p, _ := tree.Parent("d")
	assert.Equal(t, p, "a")

	tree, err = Reduce(ns, second)
	assert.NilError(t, err)
	p, _ = tree.Parent("d")
	assert.Equal(t, p, "b")
}

func TestUnreachableNodesHaveNoParent(t *testing.T) {
	ns := nodes("s", "a", "x", "y")
	cs := []network.Cable{cable("1", "s", "a"), cable("2", "x", "y")}

	tree, err := Reduce(ns, cs)
	assert.NilError(t, err)
	assert.Assert(t, tree.Reachable("a"))
	assert.Assert(t, !tree.Reachable("x"))
	assert.Assert(t, !tree.Reachable("y"))
	assert.Assert(t, !tree.Reachable("ghost"))

	_, ok := tree.Parent("y")
	assert.Assert(t, !ok)
	assert.Equal(t, len(tree.PostOrder()), 2)
}

func TestReduceSourceCount(t *testing.T) {
	_, err := Reduce([]network.Node{{ID: "a"}}, nil)
	assert.Assert(t, errors.Is(err, network.ErrSourceCount))

	_, err = BuildTree(NewGraph(), "s")
	assert.Assert(t, errors.Is(err, ErrUnknownRoot))
}

func TestPostOrderVisitsChildrenFirst(t *testing.T) {
	ns := nodes("s", "a", "b", "c", "d")
	cs := []network.Cable{cable("1", "s", "a"), cable("2", "a", "b"), cable("3", "b", "c"), cable("4", "s", "d")}
	tree, err := Reduce(ns, cs)
	assert.NilError(t, err)

	order := tree.PostOrder()
	pos := make(map[string]int)
	for k, i := range order {
		pos[tree.Graph().ID(i)] = k
	}
	assert.Equal(t, len(order), 5)
	assert.Assert(t, pos["c"] < pos["b"])
	assert.Assert(t, pos["b"] < pos["a"])
	assert.Assert(t, pos["a"] < pos["s"])
	assert.Assert(t, pos["d"] < pos["s"])
	assert.Equal(t, order[len(order)-1], 0)
}

func TestPostOrderDeepChain(t *testing.T) {
	const depth = 100000
	ns := make([]network.Node, depth)
	cs := make([]network.Cable, depth-1)
	for i := range ns {
		ns[i] = network.Node{ID: "n" + strconv.Itoa(i), IsSource: i == 0}
		if i > 0 {
			cs[i-1] = cable(strconv.Itoa(i), ns[i-1].ID, ns[i].ID)
		}
	}
	tree, err := Reduce(ns, cs)
	assert.NilError(t, err)
	assert.Equal(t, len(tree.PostOrder()), depth)
}

func TestClassify(t *testing.T) {
	ns := nodes("s", "a", "b", "x")
	cs := []network.Cable{cable("1", "s", "a"), cable("2", "b", "a"), cable("3", "s", "b")}
	tree, err := Reduce(ns, cs)
	assert.NilError(t, err)

	assert.Equal(t, tree.Classify("s", "a"), EdgeClass{Kind: TreeEdge, Distal: "a"})
	assert.Equal(t, tree.Classify("a", "s"), EdgeClass{Kind: TreeEdge, Distal: "a"})

	// a-b closes the loop s-a-b-s.
	loop := tree.Classify("b", "a")
	assert.Equal(t, loop, EdgeClass{Kind: NonTreeEdge, Distal: "a"})
	assert.Assert(t, loop.Approximate())

	outside := tree.Classify("x", "ghost")
	assert.Equal(t, outside.Distal, "ghost")
	assert.Equal(t, outside.Kind.String(), "non-tree")
}
