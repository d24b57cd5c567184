// Package effects post-processes rendered buffers: letterbox fitting to the
// output size, soft drop shadow and bottom reflection.
package effects

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// Shadow and reflection parameters in logical pixels.
const (
	shadowOffset   = 5
	shadowBlur     = 10
	shadowOpacity  = 0.1
	reflectionFrom = 0.8
	reflectionTop  = 26 // alpha of the gradient's top edge, about 10%
)

// Fit scales img to fit inside width x height preserving its aspect ratio
// and centers it on a bg canvas. A buffer already at the target size is
// copied unchanged.
func Fit(img image.Image, width, height int, bg color.Color) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Over)
		return canvas
	}

	s := math.Min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * s))
	h := int(math.Round(float64(b.Dy()) * s))
	x := (width - w) / 2
	y := (height - h) / 2

	xdraw.CatmullRom.Scale(canvas, image.Rect(x, y, x+w, y+h), img, b, xdraw.Over, nil)
	return canvas
}

// Effects selects the decorations Apply adds.
type Effects struct {
	SoftShadow bool
	Reflection bool

	// Scale converts logical effect sizes to buffer pixels.
	Scale float64

	Background color.Color
}

// Enabled reports whether any effect is selected.
func (e Effects) Enabled() bool {
	return e.SoftShadow || e.Reflection
}

// Apply decorates img and returns a buffer of the same size. With no effect
// selected img itself is returned. A failure inside an effect is logged and
// the input returned unchanged.
func Apply(img image.Image, fx Effects, logger *slog.Logger) (out image.Image) {
	if !fx.Enabled() || img == nil {
		return img
	}
	if fx.Scale <= 0 {
		fx.Scale = 1
	}
	if fx.Background == nil {
		fx.Background = color.White
	}

	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn("post-processing skipped", "panic", r)
			}
			out = img
		}
	}()

	out = img
	if fx.SoftShadow {
		out = softShadow(out, fx)
	}
	if fx.Reflection {
		out = reflection(out)
	}
	return out
}

// softShadow shrinks the content to leave room for a blurred, offset
// silhouette behind it.
func softShadow(img image.Image, fx Effects) image.Image {
	b := img.Bounds()
	off := int(math.Round(shadowOffset * fx.Scale))
	blur := shadowBlur * fx.Scale
	inset := off + int(math.Ceil(blur))
	w, h := b.Dx()-2*inset, b.Dy()-2*inset
	if w <= 0 || h <= 0 {
		return img
	}

	content := imaging.Resize(img, w, h, imaging.Lanczos)

	silhouette := imaging.New(w, h, color.NRGBA{A: 255})
	shadowLayer := imaging.New(b.Dx(), b.Dy(), color.NRGBA{})
	shadowLayer = imaging.Paste(shadowLayer, silhouette, image.Pt(inset+off, inset+off))
	shadowLayer = imaging.Blur(shadowLayer, blur/2)

	canvas := imaging.New(b.Dx(), b.Dy(), fx.Background)
	canvas = imaging.Overlay(canvas, shadowLayer, image.Point{}, shadowOpacity)
	return imaging.Overlay(canvas, content, image.Pt(inset, inset), 1)
}

// reflection lays a fading white gradient over the bottom fifth.
func reflection(img image.Image) image.Image {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	w, h := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContextForRGBA(rgba)
	grad := gg.NewLinearGradient(0, h*reflectionFrom, 0, h)
	grad.AddColorStop(0, color.NRGBA{R: 255, G: 255, B: 255, A: reflectionTop})
	grad.AddColorStop(1, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, h*reflectionFrom, w, h*(1-reflectionFrom))
	dc.Fill()
	return rgba
}
