package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetHomeDir returns the user's home directory, with Windows fallbacks for
// environments where os.UserHomeDir comes up empty.
func GetHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		if home := os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH"); home != "" {
			return home
		}
		return "C:\\"
	}
	return "/"
}

// GetConfigDir is where settings.toml lives: ~/.config/ahme on every
// platform, so Windows users find it where the docs say it is.
func GetConfigDir() string {
	return filepath.Join(GetHomeDir(), ".config", "ahme")
}

func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetDefaultDataDir picks the platform data location: ~/.local/share/ahme,
// or %LOCALAPPDATA%\ahme on Windows.
func GetDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(GetHomeDir(), "AppData", "Local")
		}
		return filepath.Join(base, "ahme")
	}
	return filepath.Join(GetHomeDir(), ".local", "share", "ahme")
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates a user-only directory.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// EnsureDataDirPermissions tightens an existing data directory to 0700.
// Sessions and credentials live there.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dataDir, 0700)
		}
		return err
	}
	if info.Mode().Perm() != 0700 {
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
