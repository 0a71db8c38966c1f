package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/gridduel/benchmarks/common"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gridduel",
		Short:        "Two agents race for the goal on a treasure grid",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := common.LoadFlags(configFile, flags); err != nil {
					return err
				}
			}
			UpdateFlags(cmd.Flags())
			if flags.Seed == 0 {
				flags.Seed = time.Now().UnixNano()
			}
			if err := flags.Validate(); err != nil {
				return err
			}
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		RunCommand(),
		CompareCommand(),
	)

	return cmd
}
