package main

import (
	"github.com/ohowland/lvnet/internal/pkg/metering"
	"github.com/ohowland/lvnet/internal/pkg/project"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMeterCommand(opts *options) *cobra.Command {
	var metersPath, save, format string
	cmd := &cobra.Command{
		Use:   "meter PROJECT",
		Short: "Replace declared powers with meter readings, then compute",
		Args:  exactlyOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			p, err := loadProject(args[0], logger)
			if err != nil {
				return err
			}
			cfg, err := metering.LoadConfig(metersPath)
			if err != nil {
				return err
			}

			readings, err := metering.ReadAll(metering.New(cfg, logger))
			if err != nil {
				return err
			}
			for _, r := range readings {
				fields := []zap.Field{zap.String("node", r.NodeID)}
				if r.DemandKVA != nil {
					fields = append(fields, zap.Float64("demand_kVA", *r.DemandKVA))
				}
				if r.ProductionKVA != nil {
					fields = append(fields, zap.Float64("production_kVA", *r.ProductionKVA))
				}
				logger.Info("meter read", fields...)
			}

			if p.Nodes, err = metering.Apply(p.Nodes, readings); err != nil {
				return err
			}
			if save != "" {
				if err := project.Save(save, p); err != nil {
					return err
				}
				logger.Info("metered project saved", zap.String("path", save))
			}

			e, scenario, err := opts.engine(logger)
			if err != nil {
				return err
			}
			res, err := e.Compute(p.Network(), scenario)
			if err != nil {
				return err
			}
			logSummary(logger, res)
			return writeResult(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVarP(&metersPath, "meters", "m", "meters.json", "meters configuration file")
	cmd.Flags().StringVar(&save, "save", "", "write the metered project to this file")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}
