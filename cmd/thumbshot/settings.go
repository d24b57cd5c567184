package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
)

// ErrSizePair indicates only one side of a size was given.
var ErrSizePair = errors.New("width and height must be set together")

// loadSettings resolves the configuration with the priority
// flags > env > config file > defaults.
func loadSettings(f *captureFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)

	cfg := config.DefaultConfig()
	name := f.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags copies every flag that was set into cfg.
func mergeFlags(f *captureFlags, cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setFloat := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	setBool := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	c := &cfg.Capture
	setString(&c.Selector, f.selector)
	setString(&c.Preset, f.size.preset)
	setInt(&c.Width, f.size.width)
	setInt(&c.Height, f.size.height)
	setInt(&c.NativeWidth, f.size.nativeWidth)
	setInt(&c.NativeHeight, f.size.nativeHeight)
	setFloat(&c.Magnification, f.size.magnification)
	setString(&c.Format, f.look.format)
	setFloat(&c.Quality, f.look.quality)
	setString(&c.Background, f.look.background)
	setString(&c.Padding, f.look.padding)
	setBool(&c.Isolate, f.isolate)
	setBool(&c.Wrap, f.wrap)

	setBool(&cfg.Effects.GlassPanel, f.look.glass)
	setBool(&cfg.Effects.SoftShadows, f.look.shadows)
	setBool(&cfg.Effects.Reflection, f.look.reflection)

	setString(&cfg.Engine.BrowserURL, f.engine.attach)
	setString(&cfg.Engine.Timeout, f.engine.timeout)
	setString(&cfg.Engine.SettleDelay, f.engine.settle)

	setString(&cfg.Output.DefaultDir, f.output.dir)
	setBool(&cfg.Output.OmitMetadata, f.output.noMetadata)
	setBool(&cfg.Output.OmitFallback, f.output.noFallback)

	setString(&cfg.Style.Name, f.style)
	setString(&cfg.Batch.Pacing, f.pacing)
	setString(&cfg.Batch.IDAttribute, f.idAttr)
}

// captureOptions converts the capture and effects sections to per-call
// overrides. Zero values keep the library defaults.
func captureOptions(cfg *config.Config) ([]thumbshot.CaptureOption, error) {
	c := cfg.Capture
	var opts []thumbshot.CaptureOption

	switch strings.ToLower(c.Preset) {
	case "thumbnail":
		opts = append(opts, thumbshot.ThumbnailOptions())
	case "full":
		opts = append(opts, thumbshot.FullResolutionOptions())
	}

	if (c.Width == 0) != (c.Height == 0) {
		return nil, fmt.Errorf("%w: %w: got %dx%d", thumbshot.ErrInvalidOptions, ErrSizePair, c.Width, c.Height)
	}
	if c.Width > 0 {
		// A preset's ratio tag no longer applies; Generate derives one.
		opts = append(opts, thumbshot.WithSize(c.Width, c.Height), thumbshot.WithAspectRatio(""))
	}
	if (c.NativeWidth == 0) != (c.NativeHeight == 0) {
		return nil, fmt.Errorf("%w: %w: got native %dx%d", thumbshot.ErrInvalidOptions, ErrSizePair, c.NativeWidth, c.NativeHeight)
	}
	if c.NativeWidth > 0 {
		opts = append(opts, thumbshot.WithNativeSize(c.NativeWidth, c.NativeHeight))
	}

	if c.Format != "" {
		format, err := thumbshot.ParseFormat(c.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", thumbshot.ErrInvalidOptions, err)
		}
		opts = append(opts, thumbshot.WithFormat(format))
	}
	if c.Magnification > 0 {
		opts = append(opts, thumbshot.WithMagnification(c.Magnification))
	}
	if c.Quality > 0 {
		opts = append(opts, thumbshot.WithQuality(c.Quality))
	}
	if c.Background != "" {
		opts = append(opts, thumbshot.WithBackground(c.Background))
	}
	if c.Padding != "" {
		opts = append(opts, thumbshot.WithPadding(c.Padding))
	}

	opts = append(opts,
		thumbshot.WithIsolation(c.Isolate),
		thumbshot.WithWrapper(c.Wrap),
		thumbshot.WithGlassPanel(cfg.Effects.GlassPanel),
		thumbshot.WithSoftShadows(cfg.Effects.SoftShadows),
		thumbshot.WithReflection(cfg.Effects.Reflection),
	)
	return opts, nil
}

// capturerOptions builds the Capturer configuration from the engine and
// batch sections. The durations were checked by config.Validate.
func capturerOptions(cfg *config.Config, logger *slog.Logger) []thumbshot.Option {
	opts := []thumbshot.Option{thumbshot.WithLogger(logger)}

	if d, _ := config.ParseDuration(cfg.Engine.Timeout); d > 0 {
		opts = append(opts, thumbshot.WithRenderTimeout(d))
	}
	if cfg.Engine.SettleDelay != "" {
		d, _ := config.ParseDuration(cfg.Engine.SettleDelay)
		opts = append(opts, thumbshot.WithSettleDelay(d))
	}
	if cfg.Batch.Pacing != "" {
		d, _ := config.ParseDuration(cfg.Batch.Pacing)
		opts = append(opts, thumbshot.WithPacing(d))
	}
	return opts
}

// browserOptions builds the Browser configuration.
func browserOptions(cfg *config.Config, logger *slog.Logger) []thumbshot.BrowserOption {
	opts := []thumbshot.BrowserOption{thumbshot.WithBrowserLogger(logger)}
	if cfg.Engine.BrowserURL != "" {
		opts = append(opts, thumbshot.WithBrowserURL(cfg.Engine.BrowserURL))
	}
	if d, _ := config.ParseDuration(cfg.Engine.Timeout); d > 0 {
		opts = append(opts, thumbshot.WithBrowserTimeout(d))
	}
	return opts
}
