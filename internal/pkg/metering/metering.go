/*
metering.go Field meters polled over Modbus TCP. Measured demand and production replace
the declared clients and productions of the metered nodes before a calculation.
*/

package metering

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ohowland/lvnet/internal/pkg/comm/modbuscomm"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Register names a meter must expose. A meter may expose either or both.
const (
	DemandRegister     = "DemandKVA"
	ProductionRegister = "ProductionKVA"
)

// MeasuredName labels the client or production replaced by a reading.
const MeasuredName = "measured"

// pollLimit bounds the number of meters read at once.
const pollLimit = 8

var (
	// ErrUnknownNode is returned when a reading targets a node absent from the network.
	ErrUnknownNode = errors.New("metered node not found")
	// ErrBadReading is returned for a negative or non-finite reading.
	ErrBadReading = errors.New("invalid meter reading")
)

// Config is the meters file format.
type Config struct {
	Meters []MeterConfig `json:"Meters"`
}

// MeterConfig binds one Modbus device to a network node.
type MeterConfig struct {
	NodeID       string                  `json:"NodeID"`
	TargetConfig modbuscomm.PollerConfig `json:"TargetConfig"`
	Registers    []modbuscomm.Register   `json:"Registers"`
}

// Meter reads one node's demand and production.
type Meter struct {
	nodeID    string
	comm      modbuscomm.Reader
	registers []modbuscomm.Register
}

// NewMeter is the Meter factory function.
func NewMeter(nodeID string, comm modbuscomm.Reader, registers []modbuscomm.Register) Meter {
	return Meter{nodeID: nodeID, comm: comm, registers: registers}
}

// NodeID is the metered node.
func (m Meter) NodeID() string {
	return m.nodeID
}

// Reading is the measured apparent power of a node. Nil fields were not measured.
type Reading struct {
	NodeID        string   `json:"nodeId"`
	DemandKVA     *float64 `json:"demand_kVA,omitempty"`
	ProductionKVA *float64 `json:"production_kVA,omitempty"`
}

// Read polls the meter.
func (m Meter) Read() (Reading, error) {
	values, err := m.comm.Read(m.registers)
	if err != nil {
		return Reading{}, fmt.Errorf("meter %q: %w", m.nodeID, err)
	}

	r := Reading{NodeID: m.nodeID}
	if v, ok := values[DemandRegister]; ok {
		r.DemandKVA = &v
	}
	if v, ok := values[ProductionRegister]; ok {
		r.ProductionKVA = &v
	}
	return r, nil
}

// LoadConfig reads a meters file.
func LoadConfig(path string) (Config, error) {
	jsonConfig, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	for _, m := range cfg.Meters {
		if m.NodeID == "" {
			return Config{}, fmt.Errorf("%s: meter without NodeID", path)
		}
		for _, r := range m.Registers {
			if err := r.Check(); err != nil {
				return Config{}, fmt.Errorf("%s: meter %q: %w", path, m.NodeID, err)
			}
		}
	}
	return cfg, nil
}

// New returns a Modbus TCP meter for every configured device.
func New(cfg Config, logger *zap.Logger) []Meter {
	meters := make([]Meter, 0, len(cfg.Meters))
	for _, m := range cfg.Meters {
		poller := modbuscomm.NewPoller(m.TargetConfig, logger)
		meters = append(meters, NewMeter(m.NodeID, poller, m.Registers))
	}
	return meters
}

// ReadAll polls every meter concurrently. Readings keep the meter order.
func ReadAll(meters []Meter) ([]Reading, error) {
	readings := make([]Reading, len(meters))

	var g errgroup.Group
	g.SetLimit(pollLimit)
	for i := range meters {
		i := i
		g.Go(func() error {
			r, err := meters[i].Read()
			if err != nil {
				return err
			}
			readings[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return readings, nil
}

// Apply returns a copy of nodes where each metered node's clients, productions or
// both are replaced by a single measured entry. nodes is not modified.
func Apply(nodes []network.Node, readings []Reading) ([]network.Node, error) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, seen := index[n.ID]; !seen {
			index[n.ID] = i
		}
	}

	out := make([]network.Node, len(nodes))
	copy(out, nodes)
	for _, r := range readings {
		i, ok := index[r.NodeID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, r.NodeID)
		}
		if r.DemandKVA != nil {
			if err := checkKVA(*r.DemandKVA); err != nil {
				return nil, fmt.Errorf("meter %q: demand %w", r.NodeID, err)
			}
			out[i].Clients = []network.Client{{Name: MeasuredName, SKVA: *r.DemandKVA}}
		}
		if r.ProductionKVA != nil {
			if err := checkKVA(*r.ProductionKVA); err != nil {
				return nil, fmt.Errorf("meter %q: production %w", r.NodeID, err)
			}
			out[i].Productions = []network.Production{{Name: MeasuredName, SKVA: *r.ProductionKVA}}
		}
	}
	return out, nil
}

// checkKVA rejects negative and non-finite readings.
func checkKVA(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrBadReading, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: negative %v", ErrBadReading, v)
	}
	return nil
}
