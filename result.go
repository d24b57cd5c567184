package thumbshot

import (
	"time"

	"github.com/alnah/go-thumbshot/internal/encode"
)

// EncodedImage is one encoding of a capture.
type EncodedImage struct {
	Format   Format `yaml:"format"`
	MIMEType string `yaml:"mime_type"`
	Data     []byte `yaml:"-"`

	// Width and Height are the logical size the image stands for.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// PixelWidth and PixelHeight are the encoded buffer size, the logical
	// size times the magnification.
	PixelWidth  int `yaml:"pixel_width"`
	PixelHeight int `yaml:"pixel_height"`

	// Bytes is the exact encoded length; EstimatedSize is the rounded
	// figure shown to users, e.g. "48KB".
	Bytes         int    `yaml:"bytes"`
	EstimatedSize string `yaml:"estimated_size"`
}

// DataURI returns the image as a base64 data URI.
func (i EncodedImage) DataURI() string {
	return encode.Image{MIMEType: i.MIMEType, Data: i.Data}.DataURI()
}

// Metadata describes a capture.
type Metadata struct {
	ID string `yaml:"id"`

	// Width and Height are the requested logical output size.
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	AspectRatio string `yaml:"aspect_ratio"`

	// Format is the encoding actually produced as primary; Requested is the
	// preferred one. They differ when Downgraded is set.
	Format     Format `yaml:"format"`
	Requested  Format `yaml:"requested_format"`
	Downgraded bool   `yaml:"downgraded"`

	// Mode is "in-place" or "clone".
	Mode          string  `yaml:"mode"`
	Scaled        bool    `yaml:"scaled"`
	ScaleX        float64 `yaml:"scale_x,omitempty"`
	ScaleY        float64 `yaml:"scale_y,omitempty"`
	Magnification float64 `yaml:"magnification"`

	// Sizes maps each produced format to its estimated size.
	Sizes    map[Format]string `yaml:"sizes"`
	FileSize string            `yaml:"file_size"`

	GeneratedAt time.Time `yaml:"generated_at"`
}

// CaptureResult is the output of a successful capture.
type CaptureResult struct {
	Primary  EncodedImage `yaml:"primary"`
	Fallback EncodedImage `yaml:"fallback"`
	Metadata Metadata     `yaml:"metadata"`
}

// encodedImage converts an encoder result to its logical-size view.
func encodedImage(img encode.Image, width, height int) EncodedImage {
	return EncodedImage{
		Format:        img.Format,
		MIMEType:      img.MIMEType,
		Data:          img.Data,
		Width:         width,
		Height:        height,
		PixelWidth:    img.Width,
		PixelHeight:   img.Height,
		Bytes:         img.Bytes,
		EstimatedSize: img.EstimatedSize,
	}
}
