package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Artwork.Provider != "pollinations" {
		t.Errorf("provider = %q, want pollinations", cfg.Artwork.Provider)
	}
	if cfg.Stitch.Cols != 10 {
		t.Errorf("cols = %d, want 10", cfg.Stitch.Cols)
	}
	if !cfg.Render.Headless {
		t.Error("headless should default to true")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cardgener.toml")
	content := `
[artwork]
provider = "stability"
width = 768

[stitch]
tts = true
preset = "1080p"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Artwork.Provider != "stability" {
		t.Errorf("provider = %q, want stability", cfg.Artwork.Provider)
	}
	if cfg.Artwork.Width != 768 {
		t.Errorf("width = %d, want 768", cfg.Artwork.Width)
	}
	if cfg.Artwork.Height != 1024 {
		t.Errorf("height = %d, want default 1024", cfg.Artwork.Height)
	}
	if !cfg.Stitch.TTS {
		t.Error("tts should be true")
	}
	if cfg.Stitch.Preset != "1080p" {
		t.Errorf("preset = %q, want 1080p", cfg.Stitch.Preset)
	}
}

func TestLoadExplicitMissingPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "empty base dir",
			mutate: func(c *Config) { c.Paths.BaseDir = "  " },
			want:   "base_dir",
		},
		{
			name:   "negative width",
			mutate: func(c *Config) { c.Artwork.Width = -1 },
			want:   "dimensions",
		},
		{
			name:   "zero completion timeout",
			mutate: func(c *Config) { c.Render.CompletionTimeout = 0 },
			want:   "completion_timeout",
		},
		{
			name:   "negative spacing",
			mutate: func(c *Config) { c.Stitch.Spacing = -5 },
			want:   "spacing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestTemplatePath(t *testing.T) {
	cfg := Default()
	cfg.Paths.TemplateSet = "templates"

	got := cfg.TemplatePath(" Action ")
	want := filepath.Join("templates", "action.json")
	if got != want {
		t.Errorf("TemplatePath = %q, want %q", got, want)
	}
}
