// Package config loads pipeline configuration from a TOML file,
// layering file values over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory configuration for pipeline inputs and outputs.
type Paths struct {
	BaseDir     string `toml:"base_dir"`
	TemplateSet string `toml:"template_set"`
	ReportDir   string `toml:"report_dir"`
}

// Artwork contains artwork generation settings.
type Artwork struct {
	Provider     string `toml:"provider"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	Overwrite    bool   `toml:"overwrite"`
	RequestDelay int    `toml:"request_delay_seconds"`
}

// Render contains browser render settings.
type Render struct {
	ToolURL           string `toml:"tool_url"`
	Headless          bool   `toml:"headless"`
	CompletionTimeout int    `toml:"completion_timeout_seconds"`
	DownloadTimeout   int    `toml:"download_timeout_seconds"`
}

// Stitch contains sheet assembly settings.
type Stitch struct {
	Rows    int    `toml:"rows"`
	Cols    int    `toml:"cols"`
	Spacing int    `toml:"spacing"`
	TTS     bool   `toml:"tts"`
	Preset  string `toml:"preset"`
}

// Config is the complete pipeline configuration.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Artwork Artwork `toml:"artwork"`
	Render  Render  `toml:"render"`
	Stitch  Stitch  `toml:"stitch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir:     "output",
			TemplateSet: "card_conjurer_templates",
			ReportDir:   "reports",
		},
		Artwork: Artwork{
			Provider:     "pollinations",
			Width:        1024,
			Height:       1024,
			RequestDelay: 2,
		},
		Render: Render{
			ToolURL:           "https://cardconjurer.com/creator/",
			Headless:          true,
			CompletionTimeout: 30,
			DownloadTimeout:   15,
		},
		Stitch: Stitch{
			Cols: 10,
		},
	}
}

// Load parses and validates a configuration file, falling back to
// defaults when the file is absent. An empty path checks
// cardgener.toml in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := path
	if resolved == "" {
		resolved = "cardgener.toml"
	}

	file, err := os.Open(resolved)
	if err != nil {
		if path == "" && errors.Is(err, fs.ErrNotExist) {
			return &cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		problems = append(problems, "paths.base_dir must not be empty")
	}
	if c.Artwork.Width < 0 || c.Artwork.Height < 0 {
		problems = append(problems, "artwork dimensions must not be negative")
	}
	if c.Artwork.RequestDelay < 0 {
		problems = append(problems, "artwork.request_delay_seconds must not be negative")
	}
	if strings.TrimSpace(c.Render.ToolURL) == "" {
		problems = append(problems, "render.tool_url must not be empty")
	}
	if c.Render.CompletionTimeout <= 0 {
		problems = append(problems, "render.completion_timeout_seconds must be positive")
	}
	if c.Render.DownloadTimeout <= 0 {
		problems = append(problems, "render.download_timeout_seconds must be positive")
	}
	if c.Stitch.Rows < 0 || c.Stitch.Cols < 0 {
		problems = append(problems, "stitch grid dimensions must not be negative")
	}
	if c.Stitch.Spacing < 0 {
		problems = append(problems, "stitch.spacing must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnsureDirectories creates the output directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseDir, c.Paths.ReportDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TemplatePath returns the template JSON for a card type, lowercased,
// under the configured template set.
func (c *Config) TemplatePath(cardType string) string {
	name := strings.ToLower(strings.TrimSpace(cardType)) + ".json"
	return filepath.Join(c.Paths.TemplateSet, name)
}
