/*
solver.go Per-cable electrical solve over a reduced network. Each cable depends only on
the read-only tree and downstream aggregates, so cables may be solved concurrently.
*/

package solver

import (
	"fmt"

	"github.com/ohowland/lvnet/internal/pkg/demand"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/topology"
	"golang.org/x/sync/errgroup"
)

// DefaultCosPhi is the power factor used when none is configured.
const DefaultCosPhi = 0.95

// Solver solves every cable of a network with one power factor.
type Solver struct {
	CosPhi float64
	// Workers bounds the number of goroutines solving cables; values below 2 solve
	// sequentially.
	Workers int
}

// Prepare resolves, in input order, the inputs of every cable. It fails on the first
// cable referencing an unknown cable type.
func Prepare(
	tree topology.Tree,
	downstream demand.Downstream,
	nodes []network.Node,
	cables []network.Cable,
	types map[string]network.CableType,
) ([]Input, error) {
	connection := make(map[string]network.ConnectionType, len(nodes))
	for _, n := range nodes {
		if _, seen := connection[n.ID]; !seen {
			connection[n.ID] = n.ConnectionType
		}
	}

	inputs := make([]Input, len(cables))
	for i, c := range cables {
		ct, ok := types[c.TypeID]
		if !ok {
			return nil, fmt.Errorf("cable %q: %w %q", c.ID, network.ErrUnknownCableType, c.TypeID)
		}

		class := tree.Classify(c.NodeAID, c.NodeBID)
		inputs[i] = Input{
			Cable:     c,
			Type:      ct,
			Class:     class,
			Model:     ModelFor(connection[class.Distal]),
			DistalKVA: downstream.At(class.Distal),
		}
	}
	return inputs, nil
}

// SolveAll solves every prepared input. Results keep the input order whatever the
// number of workers.
func (s Solver) SolveAll(inputs []Input) ([]network.CableResult, error) {
	results := make([]network.CableResult, len(inputs))
	if s.Workers < 2 {
		for i, in := range inputs {
			results[i] = SolveCable(in, s.CosPhi)
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(s.Workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			results[i] = SolveCable(inputs[i], s.CosPhi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
