package encode

import (
	"encoding/base64"
	"image"
	"io"
	"strings"
	"sync"

	xwebp "golang.org/x/image/webp"
)

// webpSample is a 2x2 lossy WebP image.
const webpSample = "UklGRjoAAABXRUJQVlA4IC4AAACyAgCdASoCAAIALmk0mk0iIiIiIgBoSygABc6WWgAA/veff/0PP8bA//LwYAAA"

// Prober answers whether the runtime can handle WebP by decoding a known
// sample. The answer is computed once and cached.
type Prober struct {
	once   sync.Once
	decode func(io.Reader) (image.Image, error)
	webp   bool
}

// DefaultProber is shared by every Encoder of the process.
var DefaultProber = NewProber(nil)

// NewProber returns a Prober using decode (x/image/webp when nil).
func NewProber(decode func(io.Reader) (image.Image, error)) *Prober {
	if decode == nil {
		decode = xwebp.Decode
	}
	return &Prober{decode: decode}
}

// WebP reports whether the WebP sample decodes to a 2x2 image.
func (p *Prober) WebP() bool {
	p.once.Do(func() {
		defer func() {
			if recover() != nil {
				p.webp = false
			}
		}()
		img, err := p.decode(base64.NewDecoder(base64.StdEncoding, strings.NewReader(webpSample)))
		p.webp = err == nil && img != nil && img.Bounds().Dy() == 2
	})
	return p.webp
}

// Preferred returns WebP when supported and JPEG otherwise.
func (p *Prober) Preferred() Format {
	if p.WebP() {
		return WebP
	}
	return JPEG
}
