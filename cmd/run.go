package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type runFlags struct {
	once     bool
	progress bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the archiver on its daily schedule",
		Long: `Run the archiver in the foreground. A pass is started every day at
schedule.time in schedule.timezone until the process is interrupted.

With --once a single pass is performed and the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, flags.progress)
			if err != nil {
				return err
			}
			defer a.Close()

			if !flags.once {
				return a.serve(cmd.Context())
			}

			report, err := a.archiver.RunPass(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "received %d, archived %d, deleted recorded %d, already archived %d, discarded %d, failed %d\n",
				report.Received, report.Reconciled, report.Tombstoned, report.Duplicate, report.Discarded, report.Failed)
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.once, "once", false, "Perform a single pass and exit")
	cmd.Flags().BoolVarP(&flags.progress, "progress", "p", false, "Show a spinner while the inbox is fetched")
	return cmd
}
