// Package raster turns a staged subtree into a pixel buffer through the
// document's engine, with a settle delay and an explicit timeout.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// Defaults for the settle delay and render timeout.
const (
	DefaultSettleDelay = 200 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
)

// tolerance is the pixel slack accepted between the requested and the
// produced buffer size (engines round fractional clips differently).
const tolerance = 1

// ErrRasterization indicates the engine failed to produce a usable buffer.
var ErrRasterization = errors.New("rasterization failed")

// Request describes one rasterization.
type Request struct {
	Width         int
	Height        int
	Magnification float64
	Background    string
}

// Rasterizer renders staged subtrees.
type Rasterizer struct {
	settle  time.Duration
	timeout time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	logger  *slog.Logger
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithSettleDelay sets the pause before rendering that lets layout and
// fonts settle.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Rasterizer) {
		if d >= 0 {
			r.settle = d
		}
	}
}

// WithTimeout bounds a single engine call.
func WithTimeout(d time.Duration) Option {
	return func(r *Rasterizer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rasterizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// withSleep replaces the settle wait (tests).
func withSleep(fn func(context.Context, time.Duration) error) Option {
	return func(r *Rasterizer) { r.sleep = fn }
}

// New returns a Rasterizer with defaults applied.
func New(opts ...Option) *Rasterizer {
	r := &Rasterizer{
		settle:  DefaultSettleDelay,
		timeout: DefaultTimeout,
		sleep:   sleepCtx,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the per-call render timeout.
func (r *Rasterizer) Timeout() time.Duration {
	return r.timeout
}

// Render waits for the settle delay and asks doc to rasterize node. Every
// failure, including a timeout, is wrapped in ErrRasterization.
func (r *Rasterizer) Render(ctx context.Context, doc dom.Document, node dom.Element, req Request) (image.Image, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: empty box %dx%d", ErrRasterization, req.Width, req.Height)
	}
	if req.Magnification <= 0 {
		req.Magnification = 1
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sleep(ctx, r.settle); err != nil {
		return nil, fmt.Errorf("%w: waiting for layout: %w", ErrRasterization, err)
	}

	start := time.Now()
	img, err := doc.Rasterize(ctx, node, dom.RasterRequest{
		Width:      req.Width,
		Height:     req.Height,
		Scale:      req.Magnification,
		Background: req.Background,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterization, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterization, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: engine returned no buffer", ErrRasterization)
	}

	wantW := int(math.Round(float64(req.Width) * req.Magnification))
	wantH := int(math.Round(float64(req.Height) * req.Magnification))
	b := img.Bounds()
	if abs(b.Dx()-wantW) > tolerance || abs(b.Dy()-wantH) > tolerance {
		return nil, fmt.Errorf("%w: buffer %dx%d, want %dx%d", ErrRasterization, b.Dx(), b.Dy(), wantW, wantH)
	}

	r.logger.Debug("rasterized",
		"element", node.Key(),
		"width", b.Dx(),
		"height", b.Dy(),
		"elapsed", time.Since(start))
	return img, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
