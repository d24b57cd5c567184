package scale

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alnah/go-thumbshot/internal/domtest"
)

func TestParseTransform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantX   float64
		wantY   float64
		wantErr bool
	}{
		{name: "none", in: "none", wantX: 1, wantY: 1},
		{name: "empty", in: "", wantX: 1, wantY: 1},
		{name: "identity matrix", in: "matrix(1, 0, 0, 1, 0, 0)", wantX: 1, wantY: 1},
		{name: "half matrix", in: "matrix(0.5, 0, 0, 0.5, 12, 0)", wantX: 0.5, wantY: 0.5},
		{name: "rotated scale", in: "matrix(0, 0.75, -0.75, 0, 0, 0)", wantX: 0.75, wantY: 0.75},
		{name: "matrix3d", in: "matrix3d(0.5,0,0,0,0,0.25,0,0,0,0,1,0,0,0,0,1)", wantX: 0.5, wantY: 0.25},
		{name: "scale one arg", in: "scale(0.6)", wantX: 0.6, wantY: 0.6},
		{name: "scale two args", in: "scale(0.6, 0.7)", wantX: 0.6, wantY: 0.7},
		{name: "scale percentage", in: "scale(50%)", wantX: 0.5, wantY: 0.5},
		{name: "scaleX", in: "scaleX(2)", wantX: 2, wantY: 1},
		{name: "scaleY", in: "scaleY(2)", wantX: 1, wantY: 2},
		{name: "scale3d", in: "scale3d(0.5, 0.5, 1)", wantX: 0.5, wantY: 0.5},
		{name: "short matrix", in: "matrix(1, 0, 0)", wantErr: true},
		{name: "composite", in: "scale(0.5) translateX(10px)", wantErr: true},
		{name: "garbage", in: "wobble", wantErr: true},
		{name: "bad number", in: "scale(abc)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sx, sy, err := ParseTransform(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownTransform) {
					t.Fatalf("ParseTransform(%q) error = %v, want ErrUnknownTransform", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTransform(%q) unexpected error: %v", tt.in, err)
			}
			if math.Abs(sx-tt.wantX) > 1e-9 || math.Abs(sy-tt.wantY) > 1e-9 {
				t.Errorf("ParseTransform(%q) = (%v, %v), want (%v, %v)", tt.in, sx, sy, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unscaled element", func(t *testing.T) {
		t.Parallel()
		doc := domtest.NewDocument()
		el := doc.NewElement(nil, "div", 600, 800)

		v, err := Detect(ctx, el)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if v.Scaled {
			t.Error("Scaled = true, want false")
		}
		if v.Target != el {
			t.Error("Target is not the element itself")
		}
	})

	t.Run("scaled element", func(t *testing.T) {
		t.Parallel()
		doc := domtest.NewDocument()
		el := doc.NewElement(nil, "div", 800, 1131)
		el.SetTransform("matrix(0.5, 0, 0, 0.5, 0, 0)")

		v, err := Detect(ctx, el)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if !v.Scaled || v.Target != el || v.ScaleX != 0.5 {
			t.Errorf("Detect() = %+v, want scaled 0.5 on element", v)
		}
	})

	t.Run("scaled descendant", func(t *testing.T) {
		t.Parallel()
		doc := domtest.NewDocument()
		wrapper := doc.NewElement(nil, "div", 400, 566)
		rotated := doc.NewElement(wrapper, "div", 10, 10)
		rotated.SetTransform("matrix(0, 1, -1, 0, 0, 0)")
		inner := doc.NewElement(wrapper, "div", 800, 1131)
		inner.SetStyle("transform", "scale(0.5)")

		v, err := Detect(ctx, wrapper)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if !v.Scaled {
			t.Fatal("Scaled = false, want true")
		}
		if v.Target != inner {
			t.Errorf("Target = %v, want the scaled descendant", v.Target.Key())
		}
	})

	t.Run("unparsable transform counts as unscaled", func(t *testing.T) {
		t.Parallel()
		doc := domtest.NewDocument()
		el := doc.NewElement(nil, "div", 100, 100)
		el.SetTransform("perspective(10px)")

		scaled, err := IsScaled(ctx, el)
		if err != nil {
			t.Fatalf("IsScaled() error = %v", err)
		}
		if scaled {
			t.Error("IsScaled() = true, want false")
		}
	})

	t.Run("engine failure", func(t *testing.T) {
		t.Parallel()
		doc := domtest.NewDocument()
		el := doc.NewElement(nil, "div", 100, 100)
		el.Fail("ComputedTransform", nil)

		if _, err := Detect(ctx, el); !errors.Is(err, domtest.ErrInjected) {
			t.Errorf("Detect() error = %v, want ErrInjected", err)
		}
	})
}
