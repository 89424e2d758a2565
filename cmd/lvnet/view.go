package main

import (
	"github.com/ohowland/lvnet/internal/pkg/hmi"
	"github.com/ohowland/lvnet/internal/pkg/topology"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newViewCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view PROJECT",
		Short: "Compute a project and browse the result in the terminal",
		Args:  exactlyOneArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the viewer owns the terminal
			logger := zap.NewNop()

			p, err := loadProject(args[0], logger)
			if err != nil {
				return err
			}
			e, scenario, err := opts.engine(logger)
			if err != nil {
				return err
			}
			net := p.Network()
			res, err := e.Compute(net, scenario)
			if err != nil {
				return err
			}
			tree, err := topology.Reduce(net.Nodes, net.Cables)
			if err != nil {
				return err
			}

			return hmi.NewViewer(
				hmi.Results(p.Name, res),
				hmi.Topology(tree, net.Nodes),
			).Run()
		},
	}
}
