// Package storage keeps trained models and their training history.
package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chessperf"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/chessperf/
// - Linux: ~/.local/share/chessperf/
// - Windows: %APPDATA%/chessperf/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// XDG_DATA_HOME wins over ~/.local/share
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	return ensureDir(filepath.Join(baseDir, appName))
}

// GetModelDir returns the directory for exported model artifacts.
func GetModelDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dataDir, "models"))
}

// ModelPath returns the default artifact path for a named model,
// <model dir>/<name>.json.
func ModelPath(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	dir, err := GetModelDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// GetDatabaseDir returns the directory for the BadgerDB model registry.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir, err := ensureDir(filepath.Join(dataDir, "db"))
	if err != nil {
		return "", err
	}
	slog.Debug("database directory", "path", dbDir)
	return dbDir, nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
