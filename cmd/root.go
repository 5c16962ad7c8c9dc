package cmd

import (
	"fmt"

	"github.com/agnosto/dm-archiver/config"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand builds the dm-archiver command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "dm-archiver",
		Short: "Archive posts that are shared with the bot account by direct message",
		Long: `dm-archiver polls the direct messages of a Twitter account once a day.

Every message of the form "#bot <comment> <post link>" is looked up: posts
that still exist are archived together with their author and the comment,
posts that are gone are recorded as deleted.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.toml (default: ./config.toml or the user config dir)")

	root.AddCommand(
		newRunCommand(),
		newReportCommand(version),
		newDeleteCommand(),
		newDiagnoseCommand(),
		newServiceCommand(),
		newInitCommand(),
	)
	return root
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigPath()
}

// loadConfig loads and validates the configuration and starts file logging.
func loadConfig() (*config.Config, error) {
	path := resolvedConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration (%s): %w", path, err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
