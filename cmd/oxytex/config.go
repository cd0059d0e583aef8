package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-tex/engine/renderer/shader"
	"gopkg.in/yaml.v3"
)

// Manifest lists the assets checked by the manifest command.
type Manifest struct {
	Textures            []string      `yaml:"textures"`
	Shaders             []ShaderEntry `yaml:"shaders"`
	Workers             int           `yaml:"workers"`
	LogLevel            string        `yaml:"log_level"`
	RequireFullMipChain bool          `yaml:"require_full_mip_chain"`
}

// ShaderEntry is one WGSL file and the stage it is compiled for.
type ShaderEntry struct {
	Path  string `yaml:"path"`
	Stage string `yaml:"stage"`

	stage shader.ShaderType
}

// ShaderType returns the parsed stage.
func (e ShaderEntry) ShaderType() shader.ShaderType {
	return e.stage
}

// LoadManifest loads a manifest from a YAML file. Relative asset paths are resolved
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return parseManifest(data, filepath.Dir(path))
}

func parseManifest(data []byte, baseDir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if len(m.Textures) == 0 && len(m.Shaders) == 0 {
		return nil, errors.New("manifest lists no textures or shaders")
	}
	if m.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", m.Workers)
	}
	if _, err := parseLogLevel(m.LogLevel); err != nil {
		return nil, err
	}

	for i, p := range m.Textures {
		m.Textures[i] = resolvePath(baseDir, p)
	}
	for i := range m.Shaders {
		e := &m.Shaders[i]
		if e.Path == "" {
			return nil, fmt.Errorf("shader %d has no path", i)
		}
		st, err := shader.ParseShaderType(e.Stage)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", e.Path, err)
		}
		e.stage = st
		e.Path = resolvePath(baseDir, e.Path)
	}

	return &m, nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// parseLogLevel maps a manifest log level to a slog level. Empty means info.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
