package main

import (
	"fmt"
	"os"

	"github.com/ohowland/lvnet/internal/pkg/engine"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

type options struct {
	scenario string
	cosPhi   float64
	workers  int
	logLevel string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "lvnet",
		Short:        "Voltage drop and losses of radial low-voltage networks",
		Version:      version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.scenario, "scenario", "s", "mixed", "withdrawal, production or mixed")
	flags.Float64Var(&opts.cosPhi, "cos-phi", engine.DefaultConfig().CosPhi, "power factor applied to every load")
	flags.IntVarP(&opts.workers, "workers", "w", 1, "cables solved concurrently")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(
		newComputeCommand(opts),
		newViewCommand(opts),
		newMeterCommand(opts),
	)
	return root
}

func (o *options) logger() (*zap.Logger, error) {
	return logging.New(logging.Config{Level: o.logLevel, Development: true})
}

func (o *options) engine(logger *zap.Logger) (*engine.Engine, network.Scenario, error) {
	scenario, err := network.ParseScenario(o.scenario)
	if err != nil {
		return nil, "", err
	}
	e, err := engine.New(engine.Config{CosPhi: o.cosPhi, Workers: o.workers}, engine.WithLogger(logger))
	if err != nil {
		return nil, "", err
	}
	return e, scenario, nil
}

func loadProject(path string, logger *zap.Logger) (project.Project, error) {
	p, err := project.Load(path)
	if err != nil {
		return project.Project{}, err
	}
	logger.Info("project loaded",
		zap.String("name", p.Name),
		zap.String("voltageType", string(p.VoltageType)),
		zap.Int("nodes", len(p.Nodes)),
		zap.Int("cables", len(p.Cables)))
	return p, nil
}

func logSummary(logger *zap.Logger, res network.CalculationResult) {
	approximate := 0
	for _, c := range res.Cables {
		if c.Approximate {
			approximate++
		}
	}
	logger.Info("calculation complete",
		zap.String("scenario", res.Scenario.String()),
		zap.Float64("totalLoads_kVA", res.TotalLoadsKVA),
		zap.Float64("totalProductions_kVA", res.TotalProductionsKVA),
		zap.Float64("globalLosses_kW", res.GlobalLossesKW),
		zap.Float64("maxVoltageDropPercent", res.MaxVoltageDropPercent),
		zap.String("compliance", string(res.Compliance)))
	if approximate > 0 {
		logger.Warn("cables outside the radial tree were approximated", zap.Int("cables", approximate))
	}
}

func exactlyOneArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s expects a project file", cmd.Name())
	}
	return nil
}
