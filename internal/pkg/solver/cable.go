package solver

import (
	"math"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/topology"
)

var sqrt3 = math.Sqrt(3)

// Input gathers everything needed to solve one cable.
type Input struct {
	Cable network.Cable
	Type  network.CableType
	Class topology.EdgeClass
	Model Model
	// DistalKVA is the cumulative apparent power downstream of the distal node.
	DistalKVA float64
}

// SolveCable computes current, voltage drop and losses of a single cable. A negative
// DistalKVA (reverse flow) reports the voltage rise as a negative drop; losses do not
// depend on the flow direction.
func SolveCable(in Input, cosPhi float64) network.CableResult {
	u := in.Model.VoltageV
	r, x := in.Model.Impedance(in.Type)

	denom := u * cosPhi
	if in.Model.ThreePhase {
		denom = sqrt3 * u * cosPhi
	}

	var current float64
	if denom > 0 {
		current = math.Abs((in.DistalKVA * 1000) / denom)
	}

	sinPhi := math.Sqrt(1 - cosPhi*cosPhi)
	lengthKm := in.Cable.LengthM / 1000

	var dropV float64
	if in.Model.ThreePhase {
		dropV = sqrt3 * current * (r*cosPhi + x*sinPhi) * lengthKm
	} else {
		dropV = current * (r*cosPhi + x*sinPhi) * lengthKm
	}
	if in.DistalKVA < 0 {
		dropV = -dropV
	}

	var dropPercent float64
	if u > 0 {
		dropPercent = dropV / u * 100
	}
	losses := current * current * (r * lengthKm) / 1000

	return network.CableResult{
		Cable:              in.Cable,
		CurrentA:           current,
		VoltageDropV:       dropV,
		VoltageDropPercent: dropPercent,
		LossesKW:           losses,
		Compliance:         network.Classify(dropPercent),
		DistalNodeID:       in.Class.Distal,
		Approximate:        in.Class.Approximate(),
	}
}
