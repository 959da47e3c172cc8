package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Templates.Dir != DefaultTemplateDir {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, DefaultTemplateDir)
	}
	if cfg.Templates.Text != "collapse" {
		t.Errorf("Templates.Text = %q, want collapse", cfg.Templates.Text)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if !errors.HasCode(err, "E121") {
		t.Errorf("missing config error = %v, want E121", err)
	}

	configJSON := `{
  "templates": {"dir": "views", "text": "preserve", "normalizeUnicode": true},
  "render": {"minify": true},
  "server": {"port": 8080, "writeTimeout": "2s"},
  "s3": {"bucket": "b", "prefix": "p/", "region": "eu-west-1"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host default not applied: %q", cfg.Server.Host)
	}
	if got := cfg.Address(); got != "localhost:8080" {
		t.Errorf("Address = %q", got)
	}
	if got := cfg.WriteTimeout(); got != 2*time.Second {
		t.Errorf("WriteTimeout = %v", got)
	}
	if got := cfg.TemplatePath(); got != filepath.Join(tmpDir, "views") {
		t.Errorf("TemplatePath = %q", got)
	}
	if !cfg.UsesS3() {
		t.Error("UsesS3 = false")
	}

	wantBuild := markup.Options{File: "a.html", Text: markup.TextPreserve, NormalizeUnicode: true}
	if diff := cmp.Diff(wantBuild, cfg.BuildOptions("a.html")); diff != "" {
		t.Errorf("BuildOptions (-want +got):\n%s", diff)
	}
	wantRender := render.Options{Indent: "  ", Minify: true}
	if diff := cmp.Diff(wantRender, cfg.RenderOptions()); diff != "" {
		t.Errorf("RenderOptions (-want +got):\n%s", diff)
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir(), dir)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if !errors.HasCode(err, "E120") {
		t.Errorf("Expected E120 error, got: %v", err)
	}
	if _, err := LoadOrDefault(filepath.Dir(configPath)); !errors.HasCode(err, "E120") {
		t.Errorf("LoadOrDefault must not hide parse errors: %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Server.Port = 9000
	cfg.Templates.Text = "trim"
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path = %q", cfg.Path())
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmp.AllowUnexported(Config{})); diff != "" {
		t.Errorf("reloaded config (-saved +loaded):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"bad text policy", func(c *Config) { c.Templates.Text = "squash" }, "templates.text must be one of"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port must be at most 65535"},
		{"relative ws path", func(c *Config) { c.Server.Path = "live" }, `server.path must start with "/"`},
		{"bad timeout", func(c *Config) { c.Server.WriteTimeout = "soon" }, "server.writeTimeout must be a positive duration"},
		{"bucket without region", func(c *Config) { c.S3.Bucket = "b" }, "s3.region is required"},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "my-app" }, "metrics.namespace must be a valid Prometheus name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.HasCode(err, "E122") {
				t.Fatalf("Validate() = %v, want E122", err)
			}
			e := errors.FromError(err, "E122")
			if !strings.Contains(e.Detail, tt.want) {
				t.Errorf("detail = %q, want it to contain %q", e.Detail, tt.want)
			}
		})
	}
}
