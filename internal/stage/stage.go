// Package stage prepares the node a capture renders and tears it down.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alnah/go-thumbshot/internal/dom"
	"github.com/alnah/go-thumbshot/internal/scale"
)

// Off-screen coordinate of clone containers. Far outside any viewport while
// still laid out and painted.
const offscreen = -10000

// Sentinel errors for staging.
var (
	ErrBuild    = errors.New("stage build failed")
	ErrReleased = errors.New("stage already released")
)

// Mode is the staging strategy.
type Mode int

const (
	// InPlace renders the live element itself.
	InPlace Mode = iota
	// Clone renders a deep copy forced to its native size.
	Clone
)

func (m Mode) String() string {
	switch m {
	case InPlace:
		return "in-place"
	case Clone:
		return "clone"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Config controls how a stage is built.
type Config struct {
	// Isolate forces clone mode even for unscaled elements.
	Isolate bool

	// Wrap surrounds an in-place element with a wrapper sized to its
	// layout box.
	Wrap bool

	// Native is the declared size clones are forced to.
	Native dom.Size

	Background string

	// ReleaseTimeout bounds Release. Zero means DefaultReleaseTimeout.
	ReleaseTimeout time.Duration
}

// DefaultReleaseTimeout bounds Release once the capture context is gone.
const DefaultReleaseTimeout = 5 * time.Second

// Stage is a single-use rendering surface. Release must be called exactly
// once, on every exit path.
type Stage struct {
	Mode Mode

	// Node is the subtree to rasterize.
	Node dom.Element

	// Size is the logical box of Node in CSS pixels.
	Size dom.Size

	doc       dom.Document
	live      dom.Element
	container dom.Element
	wrapper   dom.Element
	scroll    dom.Point
	timeout   time.Duration
	released  bool
}

// Build stages el according to the scale verdict. On error everything Build
// created has already been released.
func Build(ctx context.Context, el dom.Element, v scale.Verdict, cfg Config) (_ *Stage, err error) {
	doc := el.Document()
	s := &Stage{doc: doc, live: el, timeout: cfg.ReleaseTimeout}
	if s.timeout <= 0 {
		s.timeout = DefaultReleaseTimeout
	}

	if s.scroll, err = doc.ScrollOffset(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading scroll offset: %v", ErrBuild, err)
	}

	defer func() {
		if err != nil {
			_ = s.Release(ctx)
			err = fmt.Errorf("%w: %v", ErrBuild, err)
		}
	}()

	if v.Scaled || cfg.Isolate {
		target := v.Target
		if target == nil {
			target = el
		}
		err = s.buildClone(ctx, target, cfg)
	} else {
		err = s.buildInPlace(ctx, el, cfg)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stage) buildInPlace(ctx context.Context, el dom.Element, cfg Config) error {
	s.Mode = InPlace
	s.Node = el

	size, err := el.LayoutSize(ctx)
	if err != nil {
		return fmt.Errorf("measuring element: %w", err)
	}
	s.Size = size

	if !cfg.Wrap {
		return nil
	}

	w, err := s.doc.CreateElement(ctx, "div")
	if err != nil {
		return fmt.Errorf("creating wrapper: %w", err)
	}
	if err := setStyles(ctx, w, map[string]string{
		"position":   "relative",
		"display":    "block",
		"width":      px(size.Width),
		"height":     px(size.Height),
		"overflow":   "visible",
		"background": cfg.Background,
	}); err != nil {
		return fmt.Errorf("styling wrapper: %w", err)
	}
	if err := el.Before(ctx, w); err != nil {
		return fmt.Errorf("inserting wrapper: %w", err)
	}
	s.wrapper = w
	if err := w.AppendChild(ctx, el); err != nil {
		return fmt.Errorf("moving element into wrapper: %w", err)
	}
	return nil
}

func (s *Stage) buildClone(ctx context.Context, target dom.Element, cfg Config) error {
	s.Mode = Clone
	s.Size = cfg.Native

	c, err := s.doc.CreateElement(ctx, "div")
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	if err := setStyles(ctx, c, map[string]string{
		"position":       "fixed",
		"left":           px(offscreen),
		"top":            px(offscreen),
		"width":          px(cfg.Native.Width),
		"height":         px(cfg.Native.Height),
		"overflow":       "hidden",
		"pointer-events": "none",
		"z-index":        "-1",
		"background":     cfg.Background,
	}); err != nil {
		return fmt.Errorf("styling container: %w", err)
	}
	body, err := s.doc.Body(ctx)
	if err != nil {
		return fmt.Errorf("locating body: %w", err)
	}
	if err := body.AppendChild(ctx, c); err != nil {
		return fmt.Errorf("mounting container: %w", err)
	}
	s.container = c

	node, err := target.Clone(ctx)
	if err != nil {
		return fmt.Errorf("cloning element: %w", err)
	}
	if err := setStyles(ctx, node, map[string]string{
		"transform":        "none",
		"transform-origin": "0 0",
		"position":         "relative",
		"left":             "0",
		"top":              "0",
		"width":            px(cfg.Native.Width),
		"height":           px(cfg.Native.Height),
		"max-width":        "none",
		"max-height":       "none",
	}); err != nil {
		return fmt.Errorf("resizing clone: %w", err)
	}
	if err := c.AppendChild(ctx, node); err != nil {
		return fmt.Errorf("mounting clone: %w", err)
	}
	s.Node = node
	return nil
}

// Release removes everything the stage created and restores the scroll
// offset. It keeps going after individual failures and returns them joined.
func (s *Stage) Release(ctx context.Context) error {
	if s.released {
		return ErrReleased
	}
	s.released = true
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	var errs []error
	if s.wrapper != nil {
		if err := s.wrapper.Before(ctx, s.live); err != nil {
			errs = append(errs, fmt.Errorf("unwrapping element: %w", err))
		}
		if err := s.wrapper.Remove(ctx); err != nil {
			errs = append(errs, fmt.Errorf("removing wrapper: %w", err))
		}
	}
	if s.container != nil {
		if err := s.container.Remove(ctx); err != nil {
			errs = append(errs, fmt.Errorf("removing container: %w", err))
		}
	}
	if err := s.doc.ScrollTo(ctx, s.scroll); err != nil {
		errs = append(errs, fmt.Errorf("restoring scroll: %w", err))
	}
	return errors.Join(errs...)
}

func setStyles(ctx context.Context, el dom.Element, styles map[string]string) error {
	for name, v := range styles {
		if v == "" {
			continue
		}
		if err := el.SetInlineStyle(ctx, name, dom.Property{Value: v, Priority: "important"}); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func px(v int) string {
	return strconv.Itoa(v) + "px"
}
