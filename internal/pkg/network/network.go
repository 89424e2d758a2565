/*
network.go Data model of a low-voltage distribution network: nodes, cables and the
cable-type catalog supplied by the caller, and the annotated results produced by the
calculation engine.
*/

package network

// ConnectionType selects the electrical model of the circuit feeding a node.
type ConnectionType string

// Recognized connection types. Any other value is treated as ThreePhaseNeutral.
const (
	SinglePhaseNeutral ConnectionType = "MONO_230V_PN"
	SinglePhaseLine    ConnectionType = "MONO_230V_PP"
	ThreePhase         ConnectionType = "TRI_230V_3F"
	ThreePhaseNeutral  ConnectionType = "TÉTRA_3P+N_230_400V"
)

// Client is a consumer attached to a node.
type Client struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	SKVA float64 `json:"S_kVA" yaml:"S_kVA" validate:"gte=0"`
}

// Production is a generation unit (PV, ...) attached to a node.
type Production struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	SKVA float64 `json:"S_kVA" yaml:"S_kVA" validate:"gte=0"`
}

// Node is a supply, load or production point of the network.
type Node struct {
	ID             string         `json:"id" yaml:"id" validate:"required"`
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	IsSource       bool           `json:"isSource" yaml:"isSource"`
	ConnectionType ConnectionType `json:"connectionType" yaml:"connectionType"`
	Clients        []Client       `json:"clients" yaml:"clients" validate:"dive"`
	Productions    []Production   `json:"productions" yaml:"productions" validate:"dive"`
}

// DemandKVA is the sum of the node's client demand.
func (n Node) DemandKVA() float64 {
	var s float64
	for _, c := range n.Clients {
		s += c.SKVA
	}
	return s
}

// ProductionKVA is the sum of the node's production.
func (n Node) ProductionKVA() float64 {
	var s float64
	for _, p := range n.Productions {
		s += p.SKVA
	}
	return s
}

// Cable is an undirected link between two nodes.
type Cable struct {
	ID      string  `json:"id" yaml:"id" validate:"required"`
	NodeAID string  `json:"nodeAId" yaml:"nodeAId" validate:"required"`
	NodeBID string  `json:"nodeBId" yaml:"nodeBId" validate:"required"`
	TypeID  string  `json:"typeId" yaml:"typeId" validate:"required"`
	LengthM float64 `json:"length_m" yaml:"length_m" validate:"gte=0"`
}

// CableType holds per-kilometer impedances. R12/X12 are the positive/negative
// sequence values, R0/X0 the zero sequence values used for phase-neutral loops.
type CableType struct {
	ID       string  `json:"id" yaml:"id" validate:"required"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Material string  `json:"material,omitempty" yaml:"material,omitempty"`
	R12      float64 `json:"R12_ohm_per_km" yaml:"R12_ohm_per_km" validate:"gte=0"`
	X12      float64 `json:"X12_ohm_per_km" yaml:"X12_ohm_per_km" validate:"gte=0"`
	R0       float64 `json:"R0_ohm_per_km" yaml:"R0_ohm_per_km" validate:"gte=0"`
	X0       float64 `json:"X0_ohm_per_km" yaml:"X0_ohm_per_km" validate:"gte=0"`
}

// Network is the snapshot handed to the engine.
type Network struct {
	Nodes      []Node      `json:"nodes" yaml:"nodes" validate:"dive"`
	Cables     []Cable     `json:"cables" yaml:"cables" validate:"dive"`
	CableTypes []CableType `json:"cableTypes" yaml:"cableTypes" validate:"dive"`
}

// CableTypeIndex maps the catalog by identifier.
func (n Network) CableTypeIndex() map[string]CableType {
	index := make(map[string]CableType, len(n.CableTypes))
	for _, ct := range n.CableTypes {
		index[ct.ID] = ct
	}
	return index
}

// CableResult is a cable annotated with its computed electrical quantities.
type CableResult struct {
	Cable
	CurrentA           float64    `json:"current_A" yaml:"current_A"`
	VoltageDropV       float64    `json:"voltageDrop_V" yaml:"voltageDrop_V"`
	VoltageDropPercent float64    `json:"voltageDropPercent" yaml:"voltageDropPercent"`
	LossesKW           float64    `json:"losses_kW" yaml:"losses_kW"`
	Compliance         Compliance `json:"compliance" yaml:"compliance"`
	DistalNodeID       string     `json:"distalNodeId" yaml:"distalNodeId"`
	// Approximate is set when the cable is not an edge of the derived tree and the
	// distal node was chosen by convention.
	Approximate bool `json:"approximate" yaml:"approximate"`
}

// CalculationResult is the network-wide outcome of one calculation.
type CalculationResult struct {
	Scenario              Scenario      `json:"scenario" yaml:"scenario"`
	Cables                []CableResult `json:"cables" yaml:"cables"`
	TotalLoadsKVA         float64       `json:"totalLoads_kVA" yaml:"totalLoads_kVA"`
	TotalProductionsKVA   float64       `json:"totalProductions_kVA" yaml:"totalProductions_kVA"`
	GlobalLossesKW        float64       `json:"globalLosses_kW" yaml:"globalLosses_kW"`
	MaxVoltageDropPercent float64       `json:"maxVoltageDropPercent" yaml:"maxVoltageDropPercent"`
	Compliance            Compliance    `json:"compliance" yaml:"compliance"`
}
