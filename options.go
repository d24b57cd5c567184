package thumbshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-thumbshot/internal/effects"
	"github.com/alnah/go-thumbshot/internal/encode"
)

// Format is an output raster encoding.
type Format = encode.Format

// Supported formats. JPEG is the universal fallback.
const (
	FormatWebP = encode.WebP
	FormatJPEG = encode.JPEG
	FormatPNG  = encode.PNG
)

// ParseFormat maps "webp", "jpeg" (or "jpg") and "png" to a Format.
func ParseFormat(s string) (Format, error) {
	return encode.ParseFormat(s)
}

// WebPSupported reports whether this process can decode WebP. The answer
// is computed once.
func WebPSupported() bool {
	return encode.DefaultProber.WebP()
}

// Option limits.
const (
	MaxMagnification = 8.0
	MaxDimension     = 10000
)

// Native template size in CSS pixels (A4 at 96 DPI, rounded).
const (
	NativeWidth  = 800
	NativeHeight = 1131
)

// CaptureOptions controls one capture. Generate never mutates the record it
// starts from: defaults are copied and overrides applied to the copy.
type CaptureOptions struct {
	// Magnification multiplies the pixel density of the rendered buffer.
	Magnification float64

	// Quality is the lossy encoding quality, 0 to 1.
	Quality float64

	// Background is the fill behind and around the element: a hex color,
	// rgb()/rgba(), "white", "black" or "transparent".
	Background string

	// Padding is a CSS length applied inside the element while captured.
	Padding string

	// Width and Height are the logical output size.
	Width  int
	Height int

	// NativeWidth and NativeHeight are the declared size a scaled element
	// is restored to before rendering.
	NativeWidth  int
	NativeHeight int

	// AspectRatio is a free-form tag echoed in the metadata ("3:4", "A4").
	// When empty the reduced Width:Height ratio is reported.
	AspectRatio string

	// Format is the preferred encoding.
	Format Format

	GlassPanel  bool
	SoftShadows bool
	Reflection  bool

	// Isolate renders a clone even when the element is not scaled, so the
	// live element is never touched.
	Isolate bool

	// Wrap surrounds an in-place element with a wrapper sized to its
	// layout box for the duration of the capture.
	Wrap bool

	// RenderTimeout overrides the Capturer's render timeout when positive.
	RenderTimeout time.Duration
}

// DefaultCaptureOptions returns the process-wide defaults: a 600x800 WebP
// thumbnail at 2x on white.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		Magnification: 2,
		Quality:       0.92,
		Background:    "#ffffff",
		Width:         600,
		Height:        800,
		NativeWidth:   NativeWidth,
		NativeHeight:  NativeHeight,
		Format:        FormatWebP,
	}
}

// CaptureOption overrides one field of a capture.
type CaptureOption func(*CaptureOptions)

// WithMagnification sets the pixel density multiplier.
func WithMagnification(m float64) CaptureOption {
	return func(o *CaptureOptions) { o.Magnification = m }
}

// WithQuality sets the lossy encoding quality (0 to 1).
func WithQuality(q float64) CaptureOption {
	return func(o *CaptureOptions) { o.Quality = q }
}

// WithBackground sets the background fill.
func WithBackground(color string) CaptureOption {
	return func(o *CaptureOptions) { o.Background = color }
}

// WithPadding sets the interior padding as a CSS length.
func WithPadding(p string) CaptureOption {
	return func(o *CaptureOptions) { o.Padding = p }
}

// WithSize sets the logical output size.
func WithSize(width, height int) CaptureOption {
	return func(o *CaptureOptions) {
		o.Width = width
		o.Height = height
	}
}

// WithNativeSize sets the declared native size of scaled elements.
func WithNativeSize(width, height int) CaptureOption {
	return func(o *CaptureOptions) {
		o.NativeWidth = width
		o.NativeHeight = height
	}
}

// WithAspectRatio sets the aspect ratio tag.
func WithAspectRatio(tag string) CaptureOption {
	return func(o *CaptureOptions) { o.AspectRatio = tag }
}

// WithFormat sets the preferred encoding.
func WithFormat(f Format) CaptureOption {
	return func(o *CaptureOptions) { o.Format = f }
}

// WithGlassPanel toggles the blurred, rounded panel look.
func WithGlassPanel(on bool) CaptureOption {
	return func(o *CaptureOptions) { o.GlassPanel = on }
}

// WithSoftShadows toggles the drop shadow.
func WithSoftShadows(on bool) CaptureOption {
	return func(o *CaptureOptions) { o.SoftShadows = on }
}

// WithReflection toggles the bottom reflection.
func WithReflection(on bool) CaptureOption {
	return func(o *CaptureOptions) { o.Reflection = on }
}

// WithIsolation forces clone mode.
func WithIsolation(on bool) CaptureOption {
	return func(o *CaptureOptions) { o.Isolate = on }
}

// WithWrapper toggles the in-place wrapper.
func WithWrapper(on bool) CaptureOption {
	return func(o *CaptureOptions) { o.Wrap = on }
}

// WithCaptureTimeout bounds the render step of this capture.
func WithCaptureTimeout(d time.Duration) CaptureOption {
	return func(o *CaptureOptions) { o.RenderTimeout = d }
}

// ThumbnailOptions selects the 600x800 thumbnail size.
func ThumbnailOptions() CaptureOption {
	return func(o *CaptureOptions) {
		o.Width, o.Height = 600, 800
		o.AspectRatio = "3:4"
	}
}

// FullResolutionOptions selects the native 800x1131 size.
func FullResolutionOptions() CaptureOption {
	return func(o *CaptureOptions) {
		o.Width, o.Height = NativeWidth, NativeHeight
		o.AspectRatio = "A4"
	}
}

// resolve copies base and applies overrides in order.
func resolve(base CaptureOptions, overrides []CaptureOption) CaptureOptions {
	o := base
	for _, fn := range overrides {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Validate checks that every field is within range.
func (o CaptureOptions) Validate() error {
	if math.IsNaN(o.Magnification) || o.Magnification <= 0 || o.Magnification > MaxMagnification {
		return fmt.Errorf("%w: magnification %v outside (0, %v]", ErrInvalidOptions, o.Magnification, MaxMagnification)
	}
	if math.IsNaN(o.Quality) || o.Quality < 0 || o.Quality > 1 {
		return fmt.Errorf("%w: quality %v outside [0, 1]", ErrInvalidOptions, o.Quality)
	}
	if err := checkSize("output", o.Width, o.Height); err != nil {
		return err
	}
	if err := checkSize("native", o.NativeWidth, o.NativeHeight); err != nil {
		return err
	}
	if _, err := encode.ParseFormat(string(o.Format)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if _, err := effects.ParseColor(o.Background); err != nil {
		return fmt.Errorf("%w: background: %v", ErrInvalidOptions, err)
	}
	if strings.ContainsAny(o.Padding, ";{}<>!") {
		return fmt.Errorf("%w: padding %q", ErrInvalidOptions, o.Padding)
	}
	if o.RenderTimeout < 0 {
		return fmt.Errorf("%w: negative render timeout", ErrInvalidOptions)
	}
	return nil
}

func checkSize(what string, w, h int) error {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("%w: %s size %dx%d outside 1..%d", ErrInvalidOptions, what, w, h, MaxDimension)
	}
	return nil
}

// ratioTag reduces w:h, e.g. 600x800 to "3:4".
func ratioTag(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	a, b := w, h
	for b != 0 {
		a, b = b, a%b
	}
	return strconv.Itoa(w/a) + ":" + strconv.Itoa(h/a)
}

// pixels returns the buffer size of a logical length at magnification m.
func pixels(v int, m float64) int {
	return int(math.Round(float64(v) * m))
}
