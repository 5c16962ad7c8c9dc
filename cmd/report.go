package cmd

import (
	"fmt"

	"github.com/agnosto/dm-archiver/db"
	dbservice "github.com/agnosto/dm-archiver/db/service"
	"github.com/agnosto/dm-archiver/logger"
	"github.com/agnosto/dm-archiver/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newReportCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Browse the archive in an interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openArchive()
			if err != nil {
				return err
			}
			defer database.Close()

			// keep log lines off the alt screen
			logger.Discard()

			model := ui.NewMainModel(dbservice.NewReportService(database.DB), version)
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("report ui: %w", err)
			}
			return nil
		},
	}
}

// openArchive opens the configured database without touching the API.
func openArchive() (*db.Database, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	database, err := db.NewDatabase(cfg.Database.Connector)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}
