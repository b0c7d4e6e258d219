package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// projectManifest is a loom.toml found by walking up from the working
// directory. The manifest supplies defaults; command-line flags win.
type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Tool toolConfig `toml:"tool"`
}

type toolConfig struct {
	Jobs  int    `toml:"jobs"`
	Color string `toml:"color"`
	Cache *bool  `toml:"cache"`
}

// cacheEnabled reports whether the disk cache should be used. Defaults to on
// when no manifest was found or the key is absent.
func (m *projectManifest) cacheEnabled() bool {
	if m == nil || m.Config.Tool.Cache == nil {
		return true
	}
	return *m.Config.Tool.Cache
}

func findLoomToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "loom.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findLoomToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("tool", "color") {
		switch cfg.Tool.Color {
		case "auto", "on", "off":
		default:
			return projectConfig{}, fmt.Errorf("%s: invalid [tool].color %q (expected auto|on|off)", path, cfg.Tool.Color)
		}
	}
	if cfg.Tool.Jobs < 0 {
		return projectConfig{}, fmt.Errorf("%s: [tool].jobs must not be negative", path)
	}
	return cfg, nil
}
