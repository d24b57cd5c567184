package thumbshot

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-thumbshot/internal/dom"
	"github.com/alnah/go-thumbshot/internal/effects"
	"github.com/alnah/go-thumbshot/internal/encode"
	"github.com/alnah/go-thumbshot/internal/keylock"
	"github.com/alnah/go-thumbshot/internal/raster"
	"github.com/alnah/go-thumbshot/internal/scale"
	"github.com/alnah/go-thumbshot/internal/stage"
	"github.com/alnah/go-thumbshot/internal/style"
)

// Capturer defaults.
const (
	DefaultRenderTimeout = raster.DefaultTimeout
	DefaultSettleDelay   = raster.DefaultSettleDelay
	DefaultPacing        = 100 * time.Millisecond
)

// Template thumbnail preset.
const templateMagnification = 1.8

// Capturer runs the capture pipeline. Calls through one Capturer are
// serialized; calls on the same element are serialized process-wide.
type Capturer struct {
	defaults CaptureOptions
	timeout  time.Duration
	settle   time.Duration
	pacing   time.Duration
	logger   *slog.Logger
	observer StateObserver

	styles  *style.Manager
	encoder *encode.Encoder
	prober  *encode.Prober
	locks   *keylock.Registry

	// gate admits one capture at a time.
	gate chan struct{}
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLogger sets the logger. Captures log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderTimeout bounds each engine call.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("thumbshot: WithRenderTimeout duration must be positive")
	}
	return func(c *Capturer) { c.timeout = d }
}

// WithSettleDelay sets the pause between staging and rendering. Zero
// disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Capturer) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithPacing sets the delay between batch items. Zero disables it.
func WithPacing(d time.Duration) Option {
	return func(c *Capturer) {
		if d >= 0 {
			c.pacing = d
		}
	}
}

// WithDefaults applies overrides to the Capturer's default options.
func WithDefaults(overrides ...CaptureOption) Option {
	return func(c *Capturer) {
		c.defaults = resolve(c.defaults, overrides)
	}
}

// WithStateObserver registers fn to receive every state transition.
func WithStateObserver(fn StateObserver) Option {
	return func(c *Capturer) { c.observer = fn }
}

// withEncoder replaces the encoder (tests).
func withEncoder(e *encode.Encoder) Option {
	return func(c *Capturer) { c.encoder = e }
}

// withProber replaces the format prober (tests).
func withProber(p *encode.Prober) Option {
	return func(c *Capturer) { c.prober = p }
}

// withLocks replaces the per-element lock registry (tests).
func withLocks(r *keylock.Registry) Option {
	return func(c *Capturer) { c.locks = r }
}

// New creates a Capturer.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		defaults: DefaultCaptureOptions(),
		timeout:  DefaultRenderTimeout,
		settle:   DefaultSettleDelay,
		pacing:   DefaultPacing,
		logger:   slog.New(slog.DiscardHandler),
		prober:   encode.DefaultProber,
		locks:    keylock.Default,
		gate:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.styles = style.NewManager(c.logger)
	if c.encoder == nil {
		c.encoder = encode.NewEncoder(encode.WithProber(c.prober), encode.WithLogger(c.logger))
	}
	return c
}

// Defaults returns a copy of the Capturer's default options.
func (c *Capturer) Defaults() CaptureOptions {
	return c.defaults
}

// Generate captures el. On failure the returned error is a *CaptureError;
// the element has been restored and the stage removed either way.
func (c *Capturer) Generate(ctx context.Context, el dom.Element, overrides ...CaptureOption) (*CaptureResult, error) {
	if el == nil {
		return nil, &CaptureError{Stage: Idle, Err: ErrNilElement}
	}
	o := resolve(c.defaults, overrides)
	if err := o.Validate(); err != nil {
		return nil, &CaptureError{Stage: Idle, Err: err}
	}
	// Validate accepts any spelling ParseFormat does; the encoder wants
	// the canonical one.
	o.Format, _ = encode.ParseFormat(string(o.Format))
	if o.AspectRatio == "" {
		o.AspectRatio = ratioTag(o.Width, o.Height)
	}

	key, err := elementKey(el)
	if err != nil {
		return nil, &CaptureError{Stage: Idle, Err: err}
	}

	if err := c.acquire(ctx); err != nil {
		return nil, &CaptureError{Stage: Idle, Err: err}
	}
	defer c.release()

	unlock, err := c.locks.Lock(ctx, key)
	if err != nil {
		return nil, &CaptureError{Stage: Idle, Err: err}
	}
	defer unlock()

	r := &run{c: c, id: uuid.NewString(), opts: o, el: el}
	return r.execute(ctx)
}

// GenerateOptimized captures el in the best format the runtime can encode
// (WebP when supported, JPEG otherwise) and returns that single image.
func (c *Capturer) GenerateOptimized(ctx context.Context, el dom.Element, overrides ...CaptureOption) (EncodedImage, error) {
	overrides = append(overrides, WithFormat(c.prober.Preferred()))
	res, err := c.Generate(ctx, el, overrides...)
	if err != nil {
		return EncodedImage{}, err
	}
	return res.Primary, nil
}

// GenerateTemplateThumbnail captures el as a template thumbnail: 600x800
// at 1.8x with the glass panel look and soft shadows. overrides apply on
// top of the preset.
func (c *Capturer) GenerateTemplateThumbnail(ctx context.Context, el dom.Element, overrides ...CaptureOption) (*CaptureResult, error) {
	preset := []CaptureOption{
		ThumbnailOptions(),
		WithMagnification(templateMagnification),
		WithGlassPanel(true),
		WithSoftShadows(true),
	}
	return c.Generate(ctx, el, append(preset, overrides...)...)
}

// elementKey returns el's lock key. A typed nil element reports
// ErrNilElement instead of panicking.
func elementKey(el dom.Element) (key string, err error) {
	defer func() {
		if recover() != nil {
			key, err = "", ErrNilElement
		}
	}()
	return el.Key(), nil
}

func (c *Capturer) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case c.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Capturer) release() {
	<-c.gate
}

// run is the state of one capture.
type run struct {
	c     *Capturer
	id    string
	opts  CaptureOptions
	el    dom.Element
	state State

	verdict scale.Verdict
	stage   *stage.Stage
	snap    *style.Snapshot
}

func (r *run) enter(s State) {
	r.state = s
	r.c.logger.Debug("capture state", "id", r.id, "state", s.String())
	if r.c.observer != nil {
		r.c.observer(r.id, s)
	}
}

func (r *run) execute(ctx context.Context) (res *CaptureResult, err error) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = &CaptureError{Stage: r.state, Err: fmt.Errorf("%w: %v", ErrCapturePanic, p)}
			res = nil
			r.cleanup(ctx)
		}
		if err != nil {
			r.enter(Failed)
			r.c.logger.Warn("capture failed", "id", r.id, "error", err)
			return
		}
		r.enter(Done)
		r.c.logger.Info("captured",
			"id", r.id,
			"mode", res.Metadata.Mode,
			"format", string(res.Metadata.Format),
			"size", res.Metadata.FileSize,
			"elapsed", time.Since(start))
	}()

	res, err = r.pipeline(ctx)
	r.cleanup(ctx)
	return res, err
}

// pipeline runs every step up to encoding. It returns with the stage and
// snapshot still held; execute releases them.
func (r *run) pipeline(ctx context.Context) (*CaptureResult, error) {
	r.enter(Staging)
	if err := r.stageElement(ctx); err != nil {
		return nil, &CaptureError{Stage: Staging, Err: err}
	}

	r.enter(Rendering)
	img, err := r.render(ctx)
	if err != nil {
		return nil, &CaptureError{Stage: Rendering, Err: err}
	}

	r.enter(PostProcessing)
	bg, _ := effects.ParseColor(r.opts.Background)
	w := pixels(r.opts.Width, r.opts.Magnification)
	h := pixels(r.opts.Height, r.opts.Magnification)
	out := effects.Apply(effects.Fit(img, w, h, bg), effects.Effects{
		SoftShadow: r.opts.SoftShadows,
		Reflection: r.opts.Reflection,
		Scale:      r.opts.Magnification,
		Background: bg,
	}, r.c.logger)

	r.enter(Encoding)
	enc, err := r.c.encoder.Encode(out, r.opts.Format, r.opts.Quality)
	if err != nil {
		return nil, &CaptureError{Stage: Encoding, Err: fmt.Errorf("%w: %w", ErrRasterization, err)}
	}
	return r.result(enc), nil
}

func (r *run) stageElement(ctx context.Context) error {
	v, err := scale.Detect(ctx, r.el)
	if err != nil {
		return fmt.Errorf("detecting scale: %w", err)
	}
	r.verdict = v

	r.stage, err = stage.Build(ctx, r.el, v, stage.Config{
		Isolate:    r.opts.Isolate,
		Wrap:       r.opts.Wrap,
		Native:     dom.Size{Width: r.opts.NativeWidth, Height: r.opts.NativeHeight},
		Background: r.opts.Background,
	})
	if err != nil {
		return err
	}

	r.snap, err = r.c.styles.Snapshot(ctx, r.stage.Node, style.CaptureFields)
	if err != nil {
		return err
	}
	look := style.Look{
		Background: r.opts.Background,
		Padding:    r.opts.Padding,
		Glass:      r.opts.GlassPanel,
	}
	return r.snap.Apply(ctx, r.snap.CleanLook(look))
}

func (r *run) render(ctx context.Context) (image.Image, error) {
	timeout := r.c.timeout
	if r.opts.RenderTimeout > 0 {
		timeout = r.opts.RenderTimeout
	}
	rast := raster.New(
		raster.WithSettleDelay(r.c.settle),
		raster.WithTimeout(timeout),
		raster.WithLogger(r.c.logger),
	)
	return rast.Render(ctx, r.el.Document(), r.stage.Node, raster.Request{
		Width:         r.stage.Size.Width,
		Height:        r.stage.Size.Height,
		Magnification: r.opts.Magnification,
		Background:    r.opts.Background,
	})
}

// cleanup restores the rendered node and removes the stage. Failures are
// logged and never replace the capture outcome.
func (r *run) cleanup(ctx context.Context) {
	if r.state == CleaningUp {
		return
	}
	r.enter(CleaningUp)

	if r.snap != nil {
		if err := r.c.styles.Restore(ctx, r.stage.Node, r.snap); err != nil {
			r.c.logger.Warn("restoring element", "id", r.id, "error", err)
		}
		r.snap = nil
	}
	if r.stage != nil {
		if err := r.stage.Release(ctx); err != nil {
			r.c.logger.Warn("releasing stage", "id", r.id, "mode", r.stage.Mode.String(), "error", err)
		}
		r.stage = nil
	}
}

func (r *run) result(enc encode.Result) *CaptureResult {
	o := r.opts
	res := &CaptureResult{
		Primary:  encodedImage(enc.Primary, o.Width, o.Height),
		Fallback: encodedImage(enc.Fallback, o.Width, o.Height),
	}
	res.Metadata = Metadata{
		ID:            r.id,
		Width:         o.Width,
		Height:        o.Height,
		AspectRatio:   o.AspectRatio,
		Format:        enc.Primary.Format,
		Requested:     o.Format,
		Downgraded:    enc.Downgraded,
		Mode:          r.stage.Mode.String(),
		Scaled:        r.verdict.Scaled,
		Magnification: o.Magnification,
		Sizes: map[Format]string{
			enc.Primary.Format:  enc.Primary.EstimatedSize,
			enc.Fallback.Format: enc.Fallback.EstimatedSize,
		},
		FileSize:    enc.Primary.EstimatedSize,
		GeneratedAt: time.Now().UTC(),
	}
	if r.verdict.Scaled {
		res.Metadata.ScaleX = r.verdict.ScaleX
		res.Metadata.ScaleY = r.verdict.ScaleY
	}
	return res
}
