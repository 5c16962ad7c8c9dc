package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const DefaultAPIBaseURL = "https://api.twitter.com/1.1"

func CreateDefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			APIBaseURL: DefaultAPIBaseURL,
		},
		Schedule: ScheduleConfig{
			Time:       "",
			Timezone:   "",
			RunOnStart: false,
		},
		Database: DatabaseConfig{
			Connector: "",
		},
		Options: OptionsConfig{
			PageSize:          20,
			MaxPages:          1,
			PostHosts:         []string{"twitter.com", "x.com"},
			RequestsPerSecond: 1,
			LogLevel:          "info",
		},
		Notifications: NotificationsConfig{
			Enabled:      false,
			SystemNotify: false,
			NotifyOn:     "changes",
		},
	}
}

// SaveConfig writes cfg as TOML to configPath, creating the directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(cfg)
}

// EnsureConfigExists writes a default config file when none is present.
// It reports whether a new file was created.
func EnsureConfigExists(configPath string) (bool, error) {
	if _, err := os.Stat(configPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := SaveConfig(CreateDefaultConfig(), configPath); err != nil {
		return false, fmt.Errorf("create default config: %w", err)
	}
	return true, nil
}
