package cmd

import (
	"fmt"

	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file",
		Long: `Create a config file, interactively by default.

With --defaults a config file with empty credentials is written instead, to be
filled in with an editor or overridden by environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolvedConfigPath()
			out := cmd.OutOrStdout()

			if defaults {
				created, err := config.EnsureConfigExists(path)
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(out, "Config already exists at %s\n", path)
					return nil
				}
				fmt.Fprintf(out, "Created default config at %s\n", path)
				return nil
			}

			wizard := ui.NewConfigWizardModel(path)
			if _, err := tea.NewProgram(wizard).Run(); err != nil {
				return fmt.Errorf("config wizard: %w", err)
			}
			if wizard.Saved() {
				fmt.Fprintf(out, "Saved config to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Write a default config without prompting")
	return cmd
}
