package solver

import "github.com/ohowland/lvnet/internal/pkg/network"

// Model is the electrical circuit model implied by a node's connection type.
type Model struct {
	VoltageV   float64
	ThreePhase bool
	// ZeroSequence selects the R0/X0 impedances: the current returns through the
	// neutral conductor.
	ZeroSequence bool
}

// ModelFor maps a connection type to its circuit model. Unrecognized tags fall back
// to the three-phase plus neutral model.
func ModelFor(ct network.ConnectionType) Model {
	switch ct {
	case network.SinglePhaseNeutral:
		return Model{VoltageV: 230, ThreePhase: false, ZeroSequence: true}
	case network.SinglePhaseLine:
		return Model{VoltageV: 230, ThreePhase: false, ZeroSequence: false}
	case network.ThreePhase:
		return Model{VoltageV: 230, ThreePhase: true, ZeroSequence: false}
	}
	return Model{VoltageV: 400, ThreePhase: true, ZeroSequence: false}
}

// Impedance returns the per-kilometer resistance and reactance the model uses.
func (m Model) Impedance(t network.CableType) (r, x float64) {
	if m.ZeroSequence {
		return t.R0, t.X0
	}
	return t.R12, t.X12
}
