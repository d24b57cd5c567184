package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-thumbshot/internal/config"
)

const envPrefix = "THUMBSHOT_"

// envConfig holds configuration from environment variables, for CI and
// containers where shipping a YAML file is awkward.
type envConfig struct {
	ConfigPath string        // THUMBSHOT_CONFIG
	Timeout    time.Duration // THUMBSHOT_TIMEOUT
	Format     string        // THUMBSHOT_FORMAT
	Selector   string        // THUMBSHOT_SELECTOR

	InputDir   string // THUMBSHOT_INPUT_DIR
	OutputDir  string // THUMBSHOT_OUTPUT_DIR
	BrowserURL string // THUMBSHOT_BROWSER_URL
	Style      string // THUMBSHOT_STYLE

	Pacing  string // THUMBSHOT_PACING
	Workers int    // THUMBSHOT_WORKERS
}

// knownEnvVars lists valid THUMBSHOT_* variables, to catch typos.
var knownEnvVars = map[string]bool{
	"THUMBSHOT_CONFIG":      true,
	"THUMBSHOT_TIMEOUT":     true,
	"THUMBSHOT_FORMAT":      true,
	"THUMBSHOT_SELECTOR":    true,
	"THUMBSHOT_INPUT_DIR":   true,
	"THUMBSHOT_OUTPUT_DIR":  true,
	"THUMBSHOT_BROWSER_URL": true,
	"THUMBSHOT_STYLE":       true,
	"THUMBSHOT_PACING":      true,
	"THUMBSHOT_WORKERS":     true,
	"THUMBSHOT_CONTAINER":   true, // read by doctor and hints
}

// loadEnvConfig reads the THUMBSHOT_* variables through getenv. Unparsable
// numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("THUMBSHOT_CONFIG"),
		Format:     getenv("THUMBSHOT_FORMAT"),
		Selector:   getenv("THUMBSHOT_SELECTOR"),
		InputDir:   getenv("THUMBSHOT_INPUT_DIR"),
		OutputDir:  getenv("THUMBSHOT_OUTPUT_DIR"),
		BrowserURL: getenv("THUMBSHOT_BROWSER_URL"),
		Style:      getenv("THUMBSHOT_STYLE"),
		Pacing:     getenv("THUMBSHOT_PACING"),
	}

	if timeout := getenv("THUMBSHOT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv("THUMBSHOT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}

// warnUnknownEnvVars reports THUMBSHOT_* variables nobody reads.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig fills config fields the file left empty, giving
// flags > env > config file > defaults once mergeFlags runs.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	fill := func(dst *string, v string) {
		if v != "" && *dst == "" {
			*dst = v
		}
	}
	fill(&cfg.Capture.Format, env.Format)
	fill(&cfg.Capture.Selector, env.Selector)
	fill(&cfg.Input.DefaultDir, env.InputDir)
	fill(&cfg.Output.DefaultDir, env.OutputDir)
	fill(&cfg.Engine.BrowserURL, env.BrowserURL)
	fill(&cfg.Style.Name, env.Style)
	fill(&cfg.Batch.Pacing, env.Pacing)
	if env.Timeout > 0 && cfg.Engine.Timeout == "" {
		cfg.Engine.Timeout = env.Timeout.String()
	}
}
