package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

// HomeEnvVar overrides the TestMo home directory.
const HomeEnvVar = "TESTMO_HOME"

// Home returns the TestMo home directory.
// TESTMO_HOME wins when set; otherwise this is ~/.testmo.
//
// Returns an error if the home directory cannot be determined.
func Home() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return expandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.TestmoHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
// This is always .testmo/config.yaml relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(constants.ProjectConfigDir, constants.GlobalConfigName)
}

// LogsDir returns the directory holding the CLI log file.
func LogsDir() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.LogsDir), nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// resolvePaths fills empty storage paths under home and expands ~ in the rest.
func resolvePaths(cfg *Config, home string) error {
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = filepath.Join(home, constants.DataDir)
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(home, constants.SQLiteFileName)
	}

	for _, p := range []*string{&cfg.Storage.Dir, &cfg.Storage.SQLitePath, &cfg.Metrics.Textfile} {
		if *p == "" {
			continue
		}
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}
