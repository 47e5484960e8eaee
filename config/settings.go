package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSystemConfig reads ~/.config/ahme/settings.toml, seeding a commented
// template on first run so users have something to edit.
func LoadSystemConfig() (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	path := GetSettingsFilePath()

	if !FileExists(path) {
		if err := EnsureDir(GetConfigDir()); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := seedConfigFile(path, GenerateSystemConfigTemplate()); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	return cfg, nil
}

// LoadUserConfig reads <data>/config.toml, seeding a template on first run.
func LoadUserConfig(dataDir string) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	path := filepath.Join(dataDir, "config.toml")

	if !FileExists(path) {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := seedConfigFile(path, GenerateUserConfigTemplate()); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return cfg, nil
}

func seedConfigFile(path, content string) error {
	// 0600 - config may hold endpoints users consider private
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
