package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

const (
	// UserFileName is probed in the working directory.
	UserFileName = "dataprowler_config.yaml"

	homeDirName  = ".dataprowler"
	homeFileName = "config.yaml"
)

type locatorEnv struct {
	ConfigPath string `env:"DATAPROWLER_CONFIG"`
}

// userFileCandidates lists user file locations in probe order: the explicit
// path, $DATAPROWLER_CONFIG, ./dataprowler_config.yaml and
// ~/.dataprowler/config.yaml.
func (m *Manager) userFileCandidates(environ map[string]string) []string {
	candidates := make([]string, 0, 4)
	if m.userFile != "" {
		candidates = append(candidates, m.userFile)
	}

	var le locatorEnv
	if err := env.ParseWithOptions(&le, env.Options{Environment: environ}); err != nil {
		m.logger.Warn("failed to read settings location from environment", zap.Error(err))
	} else if le.ConfigPath != "" {
		candidates = append(candidates, le.ConfigPath)
	}

	if wd, err := m.workDir(); err == nil {
		candidates = append(candidates, filepath.Join(wd, UserFileName))
	}
	if home, err := m.homeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, homeDirName, homeFileName))
	}
	return candidates
}

// locateUserFile returns the first candidate that exists. A candidate that
// does not exist is skipped, so a stale DATAPROWLER_CONFIG falls through to
// the working and home directories.
func (m *Manager) locateUserFile(environ map[string]string) (string, bool) {
	for _, candidate := range m.userFileCandidates(environ) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		m.logger.Debug("settings file candidate not found", zap.String("path", candidate))
	}
	return "", false
}
