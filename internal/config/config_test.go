package config

// Notes:
// - resolveConfigPath searches the working directory; tests that rely on
//   it use absolute paths instead to stay parallel-safe.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thumbshot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestDefaultConfig
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if got := cfg.Capture.SelectorOrDefault(); got != "body" {
		t.Errorf("SelectorOrDefault() = %q, want body", got)
	}
	if got := cfg.Batch.IDAttributeOrDefault(); got != "data-id" {
		t.Errorf("IDAttributeOrDefault() = %q, want data-id", got)
	}
	if cfg.Output.OmitMetadata || cfg.Output.OmitFallback {
		t.Error("default config omits outputs")
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `capture:
  selector: "#template"
  preset: thumbnail
  magnification: 2.5
  quality: 0.8
  format: webp
  background: "#f0f0f0"
  isolate: true
effects:
  glassPanel: true
  softShadows: true
engine:
  timeout: 45s
  settleDelay: 300ms
output:
  defaultDir: ./out
  omitFallback: true
style:
  name: paper
batch:
  pacing: 50ms
  idAttribute: data-template
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Capture.Selector != "#template" || cfg.Capture.Magnification != 2.5 || cfg.Capture.Format != "webp" {
		t.Errorf("Capture = %+v", cfg.Capture)
	}
	if !cfg.Capture.Isolate || !cfg.Effects.GlassPanel || !cfg.Effects.SoftShadows || cfg.Effects.Reflection {
		t.Errorf("toggles = %+v / %+v", cfg.Capture, cfg.Effects)
	}
	if d, _ := ParseDuration(cfg.Engine.Timeout); d != 45*time.Second {
		t.Errorf("Engine.Timeout = %q", cfg.Engine.Timeout)
	}
	if !cfg.Output.OmitFallback || cfg.Output.OmitMetadata {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Style.Name != "paper" || cfg.Batch.IDAttributeOrDefault() != "data-template" {
		t.Errorf("Style = %+v, Batch = %+v", cfg.Style, cfg.Batch)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "syntax error", content: "capture: [unclosed", wantErr: ErrConfigParse},
		{name: "unknown field", content: "capture:\n  zoom: 2\n", wantErr: ErrConfigParse},
		{name: "bad preset", content: "capture:\n  preset: poster\n", wantErr: ErrInvalidValue},
		{name: "bad format", content: "capture:\n  format: gif\n", wantErr: ErrInvalidValue},
		{name: "quality above 1", content: "capture:\n  quality: 1.5\n", wantErr: ErrInvalidValue},
		{name: "negative magnification", content: "capture:\n  magnification: -1\n", wantErr: ErrInvalidValue},
		{name: "huge width", content: "capture:\n  width: 20000\n", wantErr: ErrInvalidValue},
		{name: "bad duration", content: "engine:\n  timeout: soon\n", wantErr: ErrInvalidValue},
		{name: "negative pacing", content: "batch:\n  pacing: -1s\n", wantErr: ErrInvalidValue},
		{name: "long selector", content: "capture:\n  selector: " + strings.Repeat("a", MaxSelectorLength+1) + "\n", wantErr: ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadConfig(writeConfig(t, tt.content)); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig(empty) error = %v", err)
	}
	if cfg.Capture.Selector != "" {
		t.Errorf("Capture.Selector = %q, want empty", cfg.Capture.Selector)
	}
}

func TestLoadConfig_NotFound(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("LoadConfig(\"\") error = %v, want ErrEmptyConfigName", err)
	}
	if _, err := LoadConfig("/nonexistent/path/thumbshot.yaml"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig(missing path) error = %v, want ErrConfigNotFound", err)
	}
	_, err := LoadConfig("no-such-config-xyz")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadConfig(missing name) error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "go-thumbshot") {
		t.Errorf("error should list the user config directory: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestParseDuration
// ---------------------------------------------------------------------------

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "200ms", want: 200 * time.Millisecond},
		{in: "1m30s", want: 90 * time.Second},
		{in: "-1s", wantErr: true},
		{in: "fast", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()
	if err := validateFieldLength("f", "12345", 5); err != nil {
		t.Errorf("at limit: %v", err)
	}
	err := validateFieldLength("capture.selector", "123456", 5)
	if !errors.Is(err, ErrFieldTooLong) || !strings.Contains(err.Error(), "capture.selector") {
		t.Errorf("over limit: %v", err)
	}
}
