// Package dom defines the engine-neutral view of a live visual tree that the
// capture pipeline works against.
//
// A Document is a rendered page; an Element is a node inside it. The
// production implementation drives headless Chrome (internal/chrome), tests
// use the in-memory tree in internal/domtest.
package dom

import (
	"context"
	"errors"
	"image"
)

// Sentinel errors shared by every engine implementation.
var (
	// ErrDetached indicates the node is no longer attached to a document.
	ErrDetached = errors.New("element is detached")

	// ErrUnreadableContent indicates the subtree references content the
	// engine could not load (blocked cross-origin image, broken URL).
	ErrUnreadableContent = errors.New("element references unreadable content")
)

// Size is a layout size in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// Point is a scroll offset in CSS pixels.
type Point struct {
	X float64
	Y float64
}

// Property is an inline style declaration. An empty Value means the
// property has no inline override.
type Property struct {
	Value    string
	Priority string
}

// Set reports whether the property carries an inline override.
func (p Property) Set() bool {
	return p.Value != ""
}

// Element is a node of a live visual tree owned by the caller.
type Element interface {
	// Key identifies the node for the lifetime of its document.
	Key() string

	// Document returns the document hosting the node.
	Document() Document

	// InlineStyle returns the inline declaration for a CSS property.
	InlineStyle(ctx context.Context, name string) (Property, error)
	SetInlineStyle(ctx context.Context, name string, p Property) error
	RemoveInlineStyle(ctx context.Context, name string) error

	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	SetAttribute(ctx context.Context, name, value string) error
	RemoveAttribute(ctx context.Context, name string) error

	// ComputedTransform returns the resolved transform ("none" or a matrix).
	ComputedTransform(ctx context.Context) (string, error)

	// TransformedDescendants returns, in document order, the descendants
	// whose computed transform is not "none".
	TransformedDescendants(ctx context.Context) ([]Element, error)

	// LayoutSize returns the untransformed layout box of the node.
	LayoutSize(ctx context.Context) (Size, error)

	// Clone returns a detached deep copy of the node.
	Clone(ctx context.Context) (Element, error)

	// AppendChild moves child to the end of this node's children.
	AppendChild(ctx context.Context, child Element) error

	// Before inserts node immediately before this node in its parent.
	Before(ctx context.Context, node Element) error

	// Remove detaches the node from its parent.
	Remove(ctx context.Context) error
}

// RasterRequest describes one rasterization of a staged subtree.
type RasterRequest struct {
	// Width and Height are the logical box to render, in CSS pixels.
	Width  int
	Height int

	// Scale is the device pixel ratio applied to the capture.
	Scale float64

	// Background fills pixels the subtree leaves uncovered.
	Background string
}

// Document is the page hosting a live visual tree.
type Document interface {
	// CreateElement returns a new detached element.
	CreateElement(ctx context.Context, tag string) (Element, error)

	// Body returns the document body.
	Body(ctx context.Context) (Element, error)

	ScrollOffset(ctx context.Context) (Point, error)
	ScrollTo(ctx context.Context, p Point) error

	// Rasterize renders the subtree rooted at el into a pixel buffer of
	// round(Width*Scale) x round(Height*Scale).
	Rasterize(ctx context.Context, el Element, req RasterRequest) (image.Image, error)
}
