package cmd

import (
	"fmt"

	"github.com/sarchlab/pktflow/sim/timing"
	"github.com/sarchlab/pktflow/topology"
	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <topology.yaml>",
		Short: "Validate a topology file without running it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := topology.LoadFromPath(args[0])
			if err != nil {
				return err
			}

			n, err := topology.Build(timing.NewSerialEngine(), cfg)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d elements, %d links\n",
				args[0], len(n.Elements()), len(cfg.Links))

			return nil
		},
	}
}
