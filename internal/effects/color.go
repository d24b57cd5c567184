package effects

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalidColor indicates an unsupported CSS color value.
var ErrInvalidColor = errors.New("invalid color")

var named = map[string]color.RGBA{
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"black":       {A: 255},
	"transparent": {},
}

// ParseColor parses the CSS colors a background option may carry: #rgb,
// #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() and a few keywords.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}
	if strings.HasPrefix(s, "rgb") {
		return parseRGB(s)
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3, 4:
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return color.RGBA{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}
	// Premultiply for color.RGBA.
	a := uint32(v & 0xff)
	return color.RGBA{
		R: uint8(uint32(v>>24&0xff) * a / 255),
		G: uint8(uint32(v>>16&0xff) * a / 255),
		B: uint8(uint32(v>>8&0xff) * a / 255),
		A: uint8(a),
	}, nil
}

func parseRGB(s string) (color.RGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	var ch [3]float64
	for i := range 3 {
		f, err := strconv.ParseFloat(parts[i], 64)
		if err != nil || f < 0 || f > 255 {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		ch[i] = f
	}
	alpha := 1.0
	if len(parts) == 4 {
		p := parts[3]
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		if strings.HasSuffix(p, "%") {
			f /= 100
		}
		if f < 0 || f > 1 {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = f
	}
	return color.RGBA{
		R: uint8(ch[0]*alpha + 0.5),
		G: uint8(ch[1]*alpha + 0.5),
		B: uint8(ch[2]*alpha + 0.5),
		A: uint8(alpha*255 + 0.5),
	}, nil
}
