package engine

import (
	"math"
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/ohowland/lvnet/internal/pkg/network"
)

var connectionTypes = []network.ConnectionType{
	network.SinglePhaseNeutral,
	network.SinglePhaseLine,
	network.ThreePhase,
	network.ThreePhaseNeutral,
	"",
}

// randomRadial builds a source-rooted tree of size nodes. Every node after the
// first hangs off a random earlier node; extra cables close loops when loops is set.
func randomRadial(seed int64, size int, loops bool) network.Network {
	rng := rand.New(rand.NewSource(seed))
	types := network.DefaultCableTypes()

	net := network.Network{CableTypes: types}
	for i := 0; i < size; i++ {
		n := network.Node{
			ID:             "n" + strconv.Itoa(i),
			ConnectionType: connectionTypes[rng.Intn(len(connectionTypes))],
		}
		if i == 0 {
			n.IsSource = true
		} else {
			for c := rng.Intn(3); c > 0; c-- {
				n.Clients = append(n.Clients, network.Client{SKVA: rng.Float64() * 30})
			}
			for p := rng.Intn(2); p > 0; p-- {
				n.Productions = append(n.Productions, network.Production{SKVA: rng.Float64() * 20})
			}
		}
		net.Nodes = append(net.Nodes, n)

		if i > 0 {
			parent := rng.Intn(i)
			net.Cables = append(net.Cables, network.Cable{
				ID:      "c" + strconv.Itoa(i),
				NodeAID: net.Nodes[parent].ID,
				NodeBID: n.ID,
				TypeID:  types[rng.Intn(len(types))].ID,
				LengthM: 10 + rng.Float64()*400,
			})
		}
	}

	if loops && size > 2 {
		for k := rng.Intn(3); k > 0; k-- {
			a, b := rng.Intn(size), rng.Intn(size)
			net.Cables = append(net.Cables, network.Cable{
				ID:      "loop" + strconv.Itoa(k),
				NodeAID: net.Nodes[a].ID,
				NodeBID: net.Nodes[b].ID,
				TypeID:  types[0].ID,
				LengthM: 50,
			})
		}
	}
	return net
}

// swapRoles turns every client into a production and every production into a client.
func swapRoles(net network.Network) network.Network {
	out := net
	out.Nodes = make([]network.Node, len(net.Nodes))
	for i, n := range net.Nodes {
		n.Clients, n.Productions = nil, nil
		for _, c := range net.Nodes[i].Clients {
			n.Productions = append(n.Productions, network.Production{Name: c.Name, SKVA: c.SKVA})
		}
		for _, p := range net.Nodes[i].Productions {
			n.Clients = append(n.Clients, network.Client{Name: p.Name, SKVA: p.SKVA})
		}
		out.Nodes[i] = n
	}
	return out
}

func TestCalculationProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("global losses are the rounded sum of cable losses", prop.ForAll(
		func(seed int64, size int, loops bool) bool {
			res, err := Compute(DefaultConfig(), randomRadial(seed, size, loops), network.Mixed)
			if err != nil {
				return false
			}
			var sum float64
			for _, c := range res.Cables {
				sum += c.LossesKW
			}
			return res.GlobalLossesKW == math.Round(sum*1e6)/1e6
		},
		gen.Int64(),
		gen.IntRange(1, 60),
		gen.Bool(),
	))

	properties.Property("worst deviation drives the compliance band", prop.ForAll(
		func(seed int64, size int, loops bool) bool {
			res, err := Compute(DefaultConfig(), randomRadial(seed, size, loops), network.Withdrawal)
			if err != nil {
				return false
			}
			var worst float64
			for _, c := range res.Cables {
				worst = math.Max(worst, math.Abs(c.VoltageDropPercent))
				if c.Compliance != network.Classify(c.VoltageDropPercent) {
					return false
				}
			}
			return res.MaxVoltageDropPercent == math.Round(worst*1e6)/1e6 &&
				res.Compliance == network.Classify(worst)
		},
		gen.Int64(),
		gen.IntRange(1, 60),
		gen.Bool(),
	))

	properties.Property("worker count never changes the result", prop.ForAll(
		func(seed int64, size int, workers int) bool {
			net := randomRadial(seed, size, true)
			sequential, err := Compute(Config{CosPhi: 0.92, Workers: 1}, net, network.Mixed)
			if err != nil {
				return false
			}
			parallel, err := Compute(Config{CosPhi: 0.92, Workers: workers}, net, network.Mixed)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(sequential, parallel)
		},
		gen.Int64(),
		gen.IntRange(1, 60),
		gen.IntRange(2, 16),
	))

	properties.Property("injection mirrors withdrawal", prop.ForAll(
		func(seed int64, size int) bool {
			net := randomRadial(seed, size, false)
			withdrawal, err := Compute(DefaultConfig(), net, network.Withdrawal)
			if err != nil {
				return false
			}
			injection, err := Compute(DefaultConfig(), swapRoles(net), network.Injection)
			if err != nil {
				return false
			}
			for i, w := range withdrawal.Cables {
				p := injection.Cables[i]
				if p.VoltageDropV != -w.VoltageDropV || p.LossesKW != w.LossesKW || p.CurrentA != w.CurrentA {
					return false
				}
			}
			return injection.GlobalLossesKW == withdrawal.GlobalLossesKW
		},
		gen.Int64(),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}
