/*
demand.go Net apparent power of each node for a scenario, aggregated from the leaves
of the radial tree up to the source.
*/

package demand

import (
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/topology"
)

// NetPower is the node's own apparent power in kVA. Positive values flow from the
// source toward the node; negative values are injected back toward the source.
func NetPower(n network.Node, scenario network.Scenario) float64 {
	switch scenario {
	case network.Withdrawal:
		return n.DemandKVA()
	case network.Injection:
		return -n.ProductionKVA()
	}
	return n.DemandKVA() - n.ProductionKVA()
}

// Downstream holds the cumulative apparent power carried by the cable feeding each
// reachable node.
type Downstream struct {
	net        map[string]float64
	cumulative map[string]float64
}

// At returns the cumulative downstream power of a node; 0 when the node is not part of
// the tree.
func (d Downstream) At(id string) float64 {
	return d.cumulative[id]
}

// Own returns the node's own net power.
func (d Downstream) Own(id string) float64 {
	return d.net[id]
}

// Has reports whether a cumulative value was computed for the node.
func (d Downstream) Has(id string) bool {
	_, ok := d.cumulative[id]
	return ok
}

// Aggregate sums, for every reachable node, its own net power and that of all of its
// descendants. Children are always complete before their parent is summed.
func Aggregate(tree topology.Tree, nodes []network.Node, scenario network.Scenario) Downstream {
	net := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if _, seen := net[n.ID]; seen {
			continue
		}
		net[n.ID] = NetPower(n, scenario)
	}

	g := tree.Graph()
	sums := make([]float64, g.Len())
	cumulative := make(map[string]float64, g.Len())
	for _, i := range tree.PostOrder() {
		id := g.ID(i)
		sum := net[id]
		for _, c := range tree.ChildIndices(i) {
			sum += sums[c]
		}
		sums[i] = sum
		cumulative[id] = sum
	}

	return Downstream{net: net, cumulative: cumulative}
}
