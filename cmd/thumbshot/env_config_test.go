package main

// Notes:
// - loadEnvConfig reads through an injected getenv, so most cases run in
//   parallel on a map; warnUnknownEnvVars reads os.Environ and uses
//   t.Setenv, which forbids t.Parallel.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-thumbshot/internal/config"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	cfg := loadEnvConfig(mapEnv(map[string]string{
		"THUMBSHOT_CONFIG":      "/etc/thumbshot.yaml",
		"THUMBSHOT_TIMEOUT":     "45s",
		"THUMBSHOT_FORMAT":      "jpeg",
		"THUMBSHOT_SELECTOR":    ".template",
		"THUMBSHOT_INPUT_DIR":   "/in",
		"THUMBSHOT_OUTPUT_DIR":  "/out",
		"THUMBSHOT_BROWSER_URL": "http://127.0.0.1:9222",
		"THUMBSHOT_STYLE":       "dark",
		"THUMBSHOT_PACING":      "250ms",
		"THUMBSHOT_WORKERS":     "3",
	}))

	want := envConfig{
		ConfigPath: "/etc/thumbshot.yaml",
		Timeout:    45 * time.Second,
		Format:     "jpeg",
		Selector:   ".template",
		InputDir:   "/in",
		OutputDir:  "/out",
		BrowserURL: "http://127.0.0.1:9222",
		Style:      "dark",
		Pacing:     "250ms",
		Workers:    3,
	}
	if *cfg != want {
		t.Errorf("loadEnvConfig() = %+v, want %+v", *cfg, want)
	}
}

func TestLoadEnvConfig_InvalidNumbersIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout string
		workers string
	}{
		{"garbage", "soon", "many"},
		{"negative", "-5s", "-2"},
		{"zero", "0s", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := loadEnvConfig(mapEnv(map[string]string{
				"THUMBSHOT_TIMEOUT": tt.timeout,
				"THUMBSHOT_WORKERS": tt.workers,
			}))
			if cfg.Timeout != 0 || cfg.Workers != 0 {
				t.Errorf("Timeout = %v, Workers = %d, want both zero", cfg.Timeout, cfg.Workers)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Priority over the config file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	env := &envConfig{
		Timeout:    time.Minute,
		Format:     "png",
		Selector:   ".env",
		OutputDir:  "/env-out",
		BrowserURL: "ws://env",
		Pacing:     "1s",
	}

	t.Run("fills empty fields", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		applyEnvConfig(env, cfg)

		if cfg.Capture.Format != "png" || cfg.Capture.Selector != ".env" {
			t.Errorf("capture = %+v", cfg.Capture)
		}
		if cfg.Output.DefaultDir != "/env-out" || cfg.Engine.BrowserURL != "ws://env" {
			t.Errorf("output/engine = %+v %+v", cfg.Output, cfg.Engine)
		}
		if cfg.Engine.Timeout != "1m0s" || cfg.Batch.Pacing != "1s" {
			t.Errorf("timeout = %q, pacing = %q", cfg.Engine.Timeout, cfg.Batch.Pacing)
		}
	})

	t.Run("config file wins", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Capture.Selector = ".file"
		cfg.Engine.Timeout = "5s"
		applyEnvConfig(env, cfg)

		if cfg.Capture.Selector != ".file" {
			t.Errorf("Selector = %q, want .file", cfg.Capture.Selector)
		}
		if cfg.Engine.Timeout != "5s" {
			t.Errorf("Timeout = %q, want 5s", cfg.Engine.Timeout)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("THUMBSHOT_SELECTER", ".typo")
	t.Setenv("THUMBSHOT_FORMAT", "png")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	if !strings.Contains(buf.String(), "THUMBSHOT_SELECTER") {
		t.Errorf("output = %q, want a warning for THUMBSHOT_SELECTER", buf.String())
	}
	if strings.Contains(buf.String(), "THUMBSHOT_FORMAT") {
		t.Errorf("output = %q, known variable reported", buf.String())
	}
}
