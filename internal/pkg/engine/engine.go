/*
engine.go Voltage drop calculation of a radial low-voltage network: topology reduction,
demand aggregation, per-cable solve and network-wide roll-up, run in that order.
*/

package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/demand"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/metrics"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/result"
	"github.com/ohowland/lvnet/internal/pkg/solver"
	"github.com/ohowland/lvnet/internal/pkg/topology"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPowerFactor is returned for a power factor outside [0, 1].
	ErrInvalidPowerFactor = errors.New("power factor must be within [0, 1]")
	// ErrInvalidWorkers is returned for a negative worker count.
	ErrInvalidWorkers = errors.New("workers must not be negative")
)

// Config holds the calculation parameters shared by every cable.
type Config struct {
	CosPhi  float64 `json:"CosPhi" mapstructure:"cos_phi"`
	Workers int     `json:"Workers" mapstructure:"workers"`
}

// DefaultConfig uses a 0.95 power factor and a sequential cable solve.
func DefaultConfig() Config {
	return Config{CosPhi: solver.DefaultCosPhi, Workers: 1}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.CosPhi) || c.CosPhi < 0 || c.CosPhi > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidPowerFactor, c.CosPhi)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}
	return nil
}

// Engine runs calculations. It holds no per-calculation state and is safe for
// concurrent use.
type Engine struct {
	pid       uuid.UUID
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	publisher *msg.PubSub
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l).Named("engine") }
}

// WithMetrics records every calculation in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithPublisher publishes every result on msg.Result and every rejection on
// msg.Failure.
func WithPublisher(p *msg.PubSub) Option {
	return func(e *Engine) { e.publisher = p }
}

// New validates cfg and returns an Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		pid:    pid,
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// PID is the engine's process id.
func (e *Engine) PID() uuid.UUID {
	return e.pid
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// WithCosPhi returns a copy of the engine using another power factor.
func (e *Engine) WithCosPhi(cosPhi float64) (*Engine, error) {
	cfg := e.config
	cfg.CosPhi = cosPhi
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cp := *e
	cp.config = cfg
	return &cp, nil
}

// Compute runs one calculation. It fails when the network does not hold exactly one
// source or when a cable references an unknown cable type; no partial result is
// returned.
func (e *Engine) Compute(net network.Network, scenario network.Scenario) (network.CalculationResult, error) {
	start := time.Now()
	res, err := compute(e.config, net, scenario)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Warn("calculation rejected",
			zap.String("scenario", scenario.String()),
			zap.Error(err))
		if e.metrics != nil {
			e.metrics.RecordFailure(scenario, elapsed)
		}
		if e.publisher != nil {
			e.publisher.Publish(msg.Failure, err)
		}
		return network.CalculationResult{}, err
	}

	e.logger.Debug("calculation complete",
		zap.String("scenario", scenario.String()),
		zap.Int("cables", len(res.Cables)),
		zap.Float64("maxVoltageDropPercent", res.MaxVoltageDropPercent),
		zap.Float64("globalLossesKW", res.GlobalLossesKW),
		zap.String("compliance", string(res.Compliance)),
		zap.Duration("elapsed", elapsed))
	if e.metrics != nil {
		e.metrics.RecordCalculation(res, elapsed)
	}
	if e.publisher != nil {
		e.publisher.Publish(msg.Result, res)
	}
	return res, nil
}

// Compute runs one calculation with cfg, without logging, metrics or publishing.
func Compute(cfg Config, net network.Network, scenario network.Scenario) (network.CalculationResult, error) {
	if err := cfg.Validate(); err != nil {
		return network.CalculationResult{}, err
	}
	return compute(cfg, net, scenario)
}

func compute(cfg Config, net network.Network, scenario network.Scenario) (network.CalculationResult, error) {
	tree, err := topology.Reduce(net.Nodes, net.Cables)
	if err != nil {
		return network.CalculationResult{}, err
	}

	downstream := demand.Aggregate(tree, net.Nodes, scenario)

	inputs, err := solver.Prepare(tree, downstream, net.Nodes, net.Cables, net.CableTypeIndex())
	if err != nil {
		return network.CalculationResult{}, err
	}

	cables, err := solver.Solver{CosPhi: cfg.CosPhi, Workers: cfg.Workers}.SolveAll(inputs)
	if err != nil {
		return network.CalculationResult{}, err
	}

	return result.Aggregate(scenario, net.Nodes, cables), nil
}
