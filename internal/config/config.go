package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "notifyd"

	// Directory shared with the eww widgets that read the artifacts.
	artifactDirName = "miracleos"

	stateFileName  = "notifications.json"
	countFileName  = "notification_count"
	nextIDFileName = "notification_next_id"
	exportFileName = "eww_notifications.json"
	imageDirName   = "images"
	historyDBName  = "history.db"
)

type Config struct {
	ConfigDir    string `koanf:"config_dir"`    // where state, count and export files live
	ImageDir     string `koanf:"image_dir"`     // content-addressed images (default: <config_dir>/images)
	FallbackIcon string `koanf:"fallback_icon"` // shown when a notification has no app icon

	Images  ImagesConfig  `koanf:"images"`
	History HistoryConfig `koanf:"history"`
	Log     LogConfig     `koanf:"log"`
}

// ImagesConfig holds image canonicalization settings.
type ImagesConfig struct {
	MaxDimension uint `koanf:"max_dimension"` // scale larger images down to this bound (0 = keep size)
}

// HistoryConfig holds the notification history log settings.
type HistoryConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Path    string `koanf:"path"`    // default: $XDG_DATA_HOME/notifyd/history.db
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `koanf:"level"`        // debug, info, warn, error (default: info)
	File       string `koanf:"file"`         // empty logs to stderr
	MaxSizeMB  int    `koanf:"max_size_mb"`  // rotate after this size (default: 10)
	MaxBackups int    `koanf:"max_backups"`  // rotated files kept (default: 3)
	MaxAgeDays int    `koanf:"max_age_days"` // default: 30
}

// Load reads the default config files, then explicit if non-empty.
// An explicit path that does not exist is an error; default paths are optional.
func Load(explicit string) (*Config, error) {
	paths := getConfigPaths()
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, explicit)
	}
	return loadFrom(paths)
}

func loadFrom(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Last wins
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ConfigDir == "" {
		c.ConfigDir = filepath.Join(xdg.ConfigHome, artifactDirName)
	}
	c.ConfigDir = expandPath(c.ConfigDir)

	if c.ImageDir == "" {
		c.ImageDir = filepath.Join(c.ConfigDir, imageDirName)
	}
	c.ImageDir = expandPath(c.ImageDir)

	if c.History.Path == "" {
		c.History.Path = filepath.Join(xdg.DataHome, appName, historyDBName)
	}
	c.History.Path = expandPath(c.History.Path)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File != "" {
		c.Log.File = expandPath(c.Log.File)
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 30
	}
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/notifyd/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority among defaults)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// StatePath is the full notification state file.
func (c *Config) StatePath() string {
	return filepath.Join(c.ConfigDir, stateFileName)
}

// CountPath is the plain-text open notification count.
func (c *Config) CountPath() string {
	return filepath.Join(c.ConfigDir, countFileName)
}

// NextIDPath holds the id allocation counter across restarts.
func (c *Config) NextIDPath() string {
	return filepath.Join(c.ConfigDir, nextIDFileName)
}

// ExportPath is the eww notification list.
func (c *Config) ExportPath() string {
	return filepath.Join(c.ConfigDir, exportFileName)
}

// HistoryEnabled reports whether the history log should be opened.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}
