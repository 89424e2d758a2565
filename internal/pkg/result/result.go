package result

import (
	"math"

	"github.com/ohowland/lvnet/internal/pkg/network"
)

// Precision is the number of decimals kept in network-wide figures.
const Precision = 6

// Round rounds v to Precision decimals.
func Round(v float64) float64 {
	p := math.Pow(10, Precision)
	return math.Round(v*p) / p
}

// Aggregate rolls per-cable results into the network-wide result. Load and production
// totals are taken from the nodes whatever the scenario. The compliance band is taken
// from the worst deviation before rounding.
func Aggregate(scenario network.Scenario, nodes []network.Node, cables []network.CableResult) network.CalculationResult {
	var losses, worst float64
	for _, c := range cables {
		losses += c.LossesKW
		worst = math.Max(worst, math.Abs(c.VoltageDropPercent))
	}

	var loads, productions float64
	for _, n := range nodes {
		loads += n.DemandKVA()
		productions += n.ProductionKVA()
	}

	return network.CalculationResult{
		Scenario:              scenario,
		Cables:                cables,
		TotalLoadsKVA:         loads,
		TotalProductionsKVA:   productions,
		GlobalLossesKW:        Round(losses),
		MaxVoltageDropPercent: Round(worst),
		Compliance:            network.Classify(worst),
	}
}
