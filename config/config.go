// Package config holds the daemon configuration and path layout.
//
// All persistent state lives under a per-user base directory, by default
// ~/.summ-daemon. The base can be overridden with the SUMM_HOME environment
// variable, and individual settings with an optional config.yml inside the
// base directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRetentionHours is how long stopped sessions are kept before cleanup.
const DefaultRetentionHours = 24

// DefaultTmuxPrefix is prepended to session ids to form tmux session names.
// The prefix lets the daemon discover its own sessions in `tmux list-sessions`.
const DefaultTmuxPrefix = "summ-"

// DaemonConfig describes the daemon's directory layout and tunables.
type DaemonConfig struct {
	// BaseDir is the per-user root, default ~/.summ-daemon.
	BaseDir string `yaml:"-"`
	// SessionsDir holds one subdirectory per session.
	SessionsDir string `yaml:"sessions_dir"`
	// LogsDir holds captured session output streams.
	LogsDir string `yaml:"logs_dir"`
	// BinDir holds the installed hook reporter script.
	BinDir string `yaml:"bin_dir"`
	// SocketPath is the daemon's unix stream socket.
	SocketPath string `yaml:"socket_path"`
	// CleanupRetentionHours is how long stopped sessions survive before the
	// cleanup task reclaims them.
	CleanupRetentionHours uint64 `yaml:"cleanup_retention_hours"`
	// TmuxPrefix namespaces the daemon's tmux sessions.
	TmuxPrefix string `yaml:"tmux_prefix"`
}

// BaseDir resolves the per-user base directory.
func BaseDir() (string, error) {
	if home := os.Getenv("SUMM_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".summ-daemon"), nil
}

// Default returns the configuration rooted at the given base directory.
func Default(baseDir string) *DaemonConfig {
	return &DaemonConfig{
		BaseDir:               baseDir,
		SessionsDir:           filepath.Join(baseDir, "sessions"),
		LogsDir:               filepath.Join(baseDir, "logs"),
		BinDir:                filepath.Join(baseDir, "bin"),
		SocketPath:            filepath.Join(baseDir, "daemon.sock"),
		CleanupRetentionHours: DefaultRetentionHours,
		TmuxPrefix:            DefaultTmuxPrefix,
	}
}

// Load resolves the base directory, applies overrides from config.yml if one
// exists, and ensures all required directories exist.
func Load() (*DaemonConfig, error) {
	baseDir, err := BaseDir()
	if err != nil {
		return nil, err
	}

	cfg := Default(baseDir)

	configPath := filepath.Join(baseDir, "config.yml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureDirectories creates all required directories for the daemon.
func (c *DaemonConfig) EnsureDirectories() error {
	for _, dir := range []string{c.BaseDir, c.SessionsDir, c.LogsDir, c.BinDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TmuxSessionName derives the tmux session name for a session id.
func (c *DaemonConfig) TmuxSessionName(sessionID string) string {
	return c.TmuxPrefix + sessionID
}

// SessionDir returns the per-session root directory.
func (c *DaemonConfig) SessionDir(sessionID string) string {
	return filepath.Join(c.SessionsDir, sessionID)
}

// SessionMetaPath returns the path to a session's meta.json file.
func (c *DaemonConfig) SessionMetaPath(sessionID string) string {
	return filepath.Join(c.SessionDir(sessionID), "meta.json")
}

// SessionWorkspacePath returns the path to a session's workspace directory.
func (c *DaemonConfig) SessionWorkspacePath(sessionID string) string {
	return filepath.Join(c.SessionDir(sessionID), "workspace")
}

// SessionRuntimePath returns the path to a session's runtime directory.
func (c *DaemonConfig) SessionRuntimePath(sessionID string) string {
	return filepath.Join(c.SessionDir(sessionID), "runtime")
}

// SessionStatusPath returns the path to a session's hook status file.
func (c *DaemonConfig) SessionStatusPath(sessionID string) string {
	return filepath.Join(c.SessionRuntimePath(sessionID), "status.json")
}

// SessionLogPath returns the path of a session's captured output log.
func (c *DaemonConfig) SessionLogPath(sessionID string) string {
	return filepath.Join(c.LogsDir, sessionID+".log")
}

// HookScriptPath returns the install location of the hook reporter script.
func (c *DaemonConfig) HookScriptPath() string {
	return filepath.Join(c.BinDir, "summ-hook")
}

// PidFilePath returns the daemon's pid file location.
func (c *DaemonConfig) PidFilePath() string {
	return filepath.Join(c.BaseDir, "daemon.pid")
}
