package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newComputeCommand(opts *options) *cobra.Command {
	var output, format, remote string
	cmd := &cobra.Command{
		Use:   "compute PROJECT",
		Short: "Compute a project and write the result",
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
			var res network.CalculationResult
			if remote != "" {
				scenario, err := network.ParseScenario(opts.scenario)
				if err != nil {
					return err
				}
				logger.Debug("remote calculation", zap.String("url", remote))
				res, err = web.NewClient(remote).Calculate(p, scenario, opts.cosPhi)
				if err != nil {
					return err
				}
			} else {
				e, scenario, err := opts.engine(logger)
				if err != nil {
					return err
				}
				if res, err = e.Compute(p.Network(), scenario); err != nil {
					return err
				}
			}
			logSummary(logger, res)

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeResult(w, res, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "result file, - for stdout")
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVar(&remote, "remote", "", "compute on the lvnet webservice at this URL")
	return cmd
}

func writeResult(w io.Writer, res network.CalculationResult, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
