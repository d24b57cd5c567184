// Package scale detects elements displayed at a non-native scale.
package scale

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// ErrUnknownTransform indicates a transform value that cannot be parsed.
var ErrUnknownTransform = errors.New("unknown transform")

// epsilon is the tolerance under which a scale factor counts as identity.
const epsilon = 1e-3

// Verdict is the outcome of scale detection for one element.
type Verdict struct {
	Scaled bool

	// Target is the node to capture: the element itself, or the scaled
	// descendant when the element is unscaled but wraps one.
	Target dom.Element

	ScaleX float64
	ScaleY float64
}

// Detect inspects el's computed transform and, when el is unscaled, its
// transformed descendants in document order. The first descendant with a
// non-identity scale becomes the target. Unparsable transforms count as
// unscaled.
func Detect(ctx context.Context, el dom.Element) (Verdict, error) {
	v := Verdict{Target: el, ScaleX: 1, ScaleY: 1}

	t, err := el.ComputedTransform(ctx)
	if err != nil {
		return v, fmt.Errorf("reading transform: %w", err)
	}
	if sx, sy, err := ParseTransform(t); err == nil && !identity(sx, sy) {
		v.Scaled, v.ScaleX, v.ScaleY = true, sx, sy
		return v, nil
	}

	desc, err := el.TransformedDescendants(ctx)
	if err != nil {
		return v, fmt.Errorf("listing transformed descendants: %w", err)
	}
	for _, d := range desc {
		t, err := d.ComputedTransform(ctx)
		if err != nil {
			return v, fmt.Errorf("reading descendant transform: %w", err)
		}
		sx, sy, err := ParseTransform(t)
		if err != nil || identity(sx, sy) {
			continue
		}
		return Verdict{Scaled: true, Target: d, ScaleX: sx, ScaleY: sy}, nil
	}
	return v, nil
}

// IsScaled reports whether el or one of its descendants is scaled.
func IsScaled(ctx context.Context, el dom.Element) (bool, error) {
	v, err := Detect(ctx, el)
	return v.Scaled, err
}

func identity(sx, sy float64) bool {
	return math.Abs(sx-1) < epsilon && math.Abs(sy-1) < epsilon
}

// ParseTransform returns the horizontal and vertical scale factors of a CSS
// transform value. It understands "none", matrix(), matrix3d() and the
// scale(), scaleX(), scaleY() and scale3d() functions.
func ParseTransform(t string) (sx, sy float64, err error) {
	t = strings.TrimSpace(t)
	if t == "" || t == "none" {
		return 1, 1, nil
	}

	name, args, err := splitFunc(t)
	if err != nil {
		return 0, 0, err
	}

	switch name {
	case "matrix":
		if len(args) != 6 {
			return 0, 0, fmt.Errorf("%w: matrix needs 6 values: %q", ErrUnknownTransform, t)
		}
		return math.Hypot(args[0], args[1]), math.Hypot(args[2], args[3]), nil
	case "matrix3d":
		if len(args) != 16 {
			return 0, 0, fmt.Errorf("%w: matrix3d needs 16 values: %q", ErrUnknownTransform, t)
		}
		return math.Sqrt(args[0]*args[0] + args[1]*args[1] + args[2]*args[2]),
			math.Sqrt(args[4]*args[4] + args[5]*args[5] + args[6]*args[6]), nil
	case "scale":
		switch len(args) {
		case 1:
			return args[0], args[0], nil
		case 2:
			return args[0], args[1], nil
		}
	case "scale3d":
		if len(args) == 3 {
			return args[0], args[1], nil
		}
	case "scaleX":
		if len(args) == 1 {
			return args[0], 1, nil
		}
	case "scaleY":
		if len(args) == 1 {
			return 1, args[0], nil
		}
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownTransform, t)
}

// splitFunc parses a single "name(a, b, ...)" function with numeric or
// percentage arguments.
func splitFunc(t string) (string, []float64, error) {
	open := strings.IndexByte(t, '(')
	if open <= 0 || !strings.HasSuffix(t, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownTransform, t)
	}
	name := strings.TrimSpace(t[:open])
	body := t[open+1 : len(t)-1]
	if strings.ContainsAny(body, "()") {
		return "", nil, fmt.Errorf("%w: composite transform %q", ErrUnknownTransform, t)
	}

	parts := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' })
	args := make([]float64, 0, len(parts))
	for _, p := range parts {
		pct := strings.HasSuffix(p, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: bad number %q in %q", ErrUnknownTransform, p, t)
		}
		if pct {
			f /= 100
		}
		args = append(args, f)
	}
	return name, args, nil
}
