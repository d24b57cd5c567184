// Package config loads the YAML configuration of the thumbshot CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-thumbshot/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length and range limits.
const (
	MaxSelectorLength  = 1024
	MaxColorLength     = 64
	MaxPaddingLength   = 64
	MaxPathLength      = 4096
	MaxURLLength       = 2048
	MaxAttributeLength = 64
	MaxDimension       = 10000
	MaxMagnification   = 8.0
	MaxPresetLength    = 20
	MaxFormatLength    = 10
	MaxStyleNameLength = 64
	MaxDurationLength  = 20
	DefaultIDAttribute = "data-id"
	DefaultConfigDir   = "go-thumbshot"
	DefaultSelector    = "body"
)

// Config holds the CLI configuration. Zero values mean "library default".
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Effects EffectsConfig `yaml:"effects"`
	Engine  EngineConfig  `yaml:"engine"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Style   StyleConfig   `yaml:"style"`
	Batch   BatchConfig   `yaml:"batch"`
}

// CaptureConfig selects what is captured and at which size.
type CaptureConfig struct {
	Selector      string  `yaml:"selector"`      // CSS selector of the element (default: body)
	Preset        string  `yaml:"preset"`        // "", "thumbnail" or "full"
	Magnification float64 `yaml:"magnification"` // output pixels per CSS pixel
	Quality       float64 `yaml:"quality"`       // 0..1, lossy formats only
	Format        string  `yaml:"format"`        // png, jpeg, webp
	Background    string  `yaml:"background"`    // CSS color
	Padding       string  `yaml:"padding"`       // CSS padding
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	NativeWidth   int     `yaml:"nativeWidth"`
	NativeHeight  int     `yaml:"nativeHeight"`
	Isolate       bool    `yaml:"isolate"` // capture an off-screen clone
	Wrap          bool    `yaml:"wrap"`    // wrap the element while capturing
}

// EffectsConfig toggles decorative post-processing.
type EffectsConfig struct {
	GlassPanel  bool `yaml:"glassPanel"`
	SoftShadows bool `yaml:"softShadows"`
	Reflection  bool `yaml:"reflection"`
}

// EngineConfig configures the browser.
type EngineConfig struct {
	BrowserURL  string `yaml:"browserURL"`  // attach instead of launching
	Timeout     string `yaml:"timeout"`     // e.g. "30s"
	SettleDelay string `yaml:"settleDelay"` // e.g. "200ms"
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir   string `yaml:"defaultDir"`   // empty = next to the source
	OmitMetadata bool   `yaml:"omitMetadata"` // skip <name>.json
	OmitFallback bool   `yaml:"omitFallback"` // skip <name>.fallback.jpg
}

// StyleConfig selects the stylesheet applied to Markdown documents.
type StyleConfig struct {
	Name     string `yaml:"name"`
	BasePath string `yaml:"basePath"` // directory with styles/{name}.css
}

// BatchConfig configures multi-element captures.
type BatchConfig struct {
	Pacing      string `yaml:"pacing"`      // delay between items, e.g. "100ms"
	IDAttribute string `yaml:"idAttribute"` // attribute naming each item
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{}
}

// SelectorOrDefault returns the configured selector or "body".
func (c CaptureConfig) SelectorOrDefault() string {
	if c.Selector == "" {
		return DefaultSelector
	}
	return c.Selector
}

// IDAttributeOrDefault returns the configured attribute or "data-id".
func (c BatchConfig) IDAttributeOrDefault() string {
	if c.IDAttribute == "" {
		return DefaultIDAttribute
	}
	return c.IDAttribute
}

// Validate checks lengths, ranges and enumerations. Called by LoadConfig
// and available to callers building a Config by hand.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"capture.selector", c.Capture.Selector, MaxSelectorLength},
		{"capture.preset", c.Capture.Preset, MaxPresetLength},
		{"capture.format", c.Capture.Format, MaxFormatLength},
		{"capture.background", c.Capture.Background, MaxColorLength},
		{"capture.padding", c.Capture.Padding, MaxPaddingLength},
		{"engine.browserURL", c.Engine.BrowserURL, MaxURLLength},
		{"engine.timeout", c.Engine.Timeout, MaxDurationLength},
		{"engine.settleDelay", c.Engine.SettleDelay, MaxDurationLength},
		{"input.defaultDir", c.Input.DefaultDir, MaxPathLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"style.name", c.Style.Name, MaxStyleNameLength},
		{"style.basePath", c.Style.BasePath, MaxPathLength},
		{"batch.pacing", c.Batch.Pacing, MaxDurationLength},
		{"batch.idAttribute", c.Batch.IDAttribute, MaxAttributeLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Capture.Preset) {
	case "", "thumbnail", "full":
	default:
		return fmt.Errorf("%w: capture.preset %q (must be thumbnail or full)", ErrInvalidValue, c.Capture.Preset)
	}
	switch strings.ToLower(c.Capture.Format) {
	case "", "png", "jpeg", "jpg", "webp":
	default:
		return fmt.Errorf("%w: capture.format %q (must be png, jpeg or webp)", ErrInvalidValue, c.Capture.Format)
	}

	if m := c.Capture.Magnification; m < 0 || m > MaxMagnification || math.IsNaN(m) {
		return fmt.Errorf("%w: capture.magnification must be between 0 and %g, got %g", ErrInvalidValue, MaxMagnification, m)
	}
	if q := c.Capture.Quality; q < 0 || q > 1 || math.IsNaN(q) {
		return fmt.Errorf("%w: capture.quality must be between 0 and 1, got %g", ErrInvalidValue, q)
	}

	dims := []struct {
		field string
		value int
	}{
		{"capture.width", c.Capture.Width},
		{"capture.height", c.Capture.Height},
		{"capture.nativeWidth", c.Capture.NativeWidth},
		{"capture.nativeHeight", c.Capture.NativeHeight},
	}
	for _, d := range dims {
		if d.value < 0 || d.value > MaxDimension {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidValue, d.field, MaxDimension, d.value)
		}
	}

	for field, value := range map[string]string{
		"engine.timeout":     c.Engine.Timeout,
		"engine.settleDelay": c.Engine.SettleDelay,
		"batch.pacing":       c.Batch.Pacing,
	} {
		if _, err := ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
	}
	return nil
}

// ParseDuration parses a non-negative duration. The empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name. A value
// containing a path separator is a path; anything else is a name searched
// in the current directory, then in the user config directory.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	path := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		var err error
		if path, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	err := yamlutil.ReadFileStrict(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	case errors.Is(err, yamlutil.ErrNilData):
		// An empty file is a valid, empty config.
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches ./{name}.yaml, ./{name}.yml, then the same
// names under {UserConfigDir}/go-thumbshot/.
func resolveConfigPath(name string) (string, error) {
	dirs := []string{"."}
	if userDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userDir, DefaultConfigDir))
	}

	var tried []string
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
			tried = append(tried, path)
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
