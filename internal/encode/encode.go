// Package encode serializes pixel buffers into PNG, JPEG or WebP, falling
// back to JPEG when the preferred codec is unavailable or fails.
package encode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/gen2brain/webp"
)

// Sentinel errors for encoding.
var (
	// ErrUnsupported indicates the runtime cannot produce a format. It is
	// handled by falling back and never leaves Encode.
	ErrUnsupported = errors.New("encoding unsupported")

	// ErrFallback indicates the universal fallback encoding failed.
	ErrFallback = errors.New("fallback encoding failed")
)

// Fallback is the format every runtime can produce.
const Fallback = JPEG

// Codec writes one format.
type Codec interface {
	Encode(w io.Writer, img image.Image, quality float64) error
}

// CodecFunc adapts a function to Codec.
type CodecFunc func(w io.Writer, img image.Image, quality float64) error

// Encode implements Codec.
func (f CodecFunc) Encode(w io.Writer, img image.Image, quality float64) error {
	return f(w, img, quality)
}

// Image is one encoded buffer.
type Image struct {
	Format   Format
	MIMEType string
	Data     []byte

	// Width and Height are the pixel dimensions of the encoded buffer.
	Width  int
	Height int

	// Bytes is the exact encoded length.
	Bytes int

	// EstimatedSize is the human-readable size derived from the data URI
	// length, e.g. "48KB".
	EstimatedSize string
}

// DataURI returns the image as a base64 data URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Result carries the primary encoding and the universal fallback.
type Result struct {
	Primary  Image
	Fallback Image

	// Downgraded is set when the preferred format could not be produced
	// and Primary holds the fallback encoding.
	Downgraded bool
}

// Encoder encodes buffers with per-format codecs.
type Encoder struct {
	codecs map[Format]Codec
	probe  *Prober
	logger *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithCodec replaces the codec of a format.
func WithCodec(f Format, c Codec) Option {
	return func(e *Encoder) { e.codecs[f] = c }
}

// WithProber sets the capability prober consulted for WebP.
func WithProber(p *Prober) Option {
	return func(e *Encoder) { e.probe = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Encoder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEncoder returns an Encoder with the built-in codecs.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		codecs: map[Format]Codec{
			PNG:  CodecFunc(encodePNG),
			JPEG: CodecFunc(encodeJPEG),
			WebP: CodecFunc(encodeWebP),
		},
		probe:  DefaultProber,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode produces the preferred encoding and the JPEG fallback at the same
// quality and dimensions. When the preferred format is rejected, Primary is
// the fallback. Only a fallback failure is returned as an error.
func (e *Encoder) Encode(img image.Image, preferred Format, quality float64) (Result, error) {
	quality = clampQuality(quality)

	fallback, err := e.encodeOne(img, Fallback, quality)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFallback, err)
	}

	res := Result{Primary: fallback, Fallback: fallback}
	if preferred == Fallback {
		return res, nil
	}

	primary, err := e.encodeOne(img, preferred, quality)
	if err != nil {
		e.logger.Info("preferred encoding rejected, using fallback",
			"format", string(preferred),
			"fallback", string(Fallback),
			"error", err)
		res.Downgraded = true
		return res, nil
	}
	res.Primary = primary
	return res, nil
}

func (e *Encoder) encodeOne(img image.Image, f Format, quality float64) (out Image, err error) {
	codec, ok := e.codecs[f]
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}
	if f == WebP && e.probe != nil && !e.probe.WebP() {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, f)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s codec panicked: %v", ErrUnsupported, f, r)
		}
	}()

	var buf bytes.Buffer
	if err := codec.Encode(&buf, img, quality); err != nil {
		return Image{}, fmt.Errorf("%w: %s: %v", ErrUnsupported, f, err)
	}
	if buf.Len() == 0 {
		return Image{}, fmt.Errorf("%w: %s produced no data", ErrUnsupported, f)
	}

	b := img.Bounds()
	out = Image{
		Format:   f,
		MIMEType: f.MIMEType(),
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Bytes:    buf.Len(),
	}
	out.EstimatedSize = EstimateSize(len(out.DataURI()))
	return out, nil
}

// EstimateSize converts a data URI length into the decoded size in
// kilobytes: length * 3/4 / 1024, rounded.
func EstimateSize(dataURILen int) string {
	kb := math.Round(float64(dataURILen) * 3 / 4 / 1024)
	return strconv.Itoa(int(kb)) + "KB"
}

// clampQuality keeps q in [0, 1]. Zero is the lowest quality, not unset.
func clampQuality(q float64) float64 {
	if q < 0 || math.IsNaN(q) {
		return 0.92
	}
	return math.Min(q, 1)
}

func percent(q float64) int {
	p := int(math.Round(q * 100))
	return max(1, min(p, 100))
}

func encodePNG(w io.Writer, img image.Image, _ float64) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

func encodeJPEG(w io.Writer, img image.Image, quality float64) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: percent(quality)})
}

func encodeWebP(w io.Writer, img image.Image, quality float64) error {
	return webp.Encode(w, img, webp.Options{Quality: percent(quality)})
}
