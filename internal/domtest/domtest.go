// Package domtest provides an in-memory visual tree implementing the dom
// interfaces, with fault injection for pipeline tests.
package domtest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("domtest: injected failure")

// Compile-time interface checks.
var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*Node)(nil)
)

// RasterCall records the state of a subtree at the moment it was rasterized.
type RasterCall struct {
	Key      string
	Request  dom.RasterRequest
	Styles   map[string]dom.Property
	Attrs    map[string]string
	Attached bool
}

// RasterFunc replaces the default rasterizer. It runs without the document
// lock held.
type RasterFunc func(ctx context.Context, n *Node, req dom.RasterRequest) (image.Image, error)

// Document is an in-memory page.
type Document struct {
	mu       sync.Mutex
	nextID   int
	body     *Node
	scroll   dom.Point
	log      []string
	rasters  []RasterCall
	failures map[string]error
	stalls   map[string]bool

	// Raster overrides the default solid-fill rasterizer when set.
	Raster RasterFunc
}

// NewDocument returns a document with an empty body.
func NewDocument() *Document {
	d := &Document{failures: make(map[string]error), stalls: make(map[string]bool)}
	d.body = d.newNode("body")
	d.body.attached = true
	return d
}

// Node is an element of an in-memory Document.
type Node struct {
	doc       *Document
	id        int
	tag       string
	parent    *Node
	children  []*Node
	styles    map[string]dom.Property
	attrs     map[string]string
	transform string
	layout    dom.Size
	attached  bool
	failures  map[string]error
}

func (d *Document) newNode(tag string) *Node {
	d.nextID++
	return &Node{
		doc:      d,
		id:       d.nextID,
		tag:      tag,
		styles:   make(map[string]dom.Property),
		attrs:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// NewElement creates a node attached under parent (the body when nil).
func (d *Document) NewElement(parent *Node, tag string, width, height int) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.newNode(tag)
	n.layout = dom.Size{Width: width, Height: height}
	if parent == nil {
		parent = d.body
	}
	d.appendLocked(parent, n)
	return n
}

// BodyNode returns the body node.
func (d *Document) BodyNode() *Node {
	return d.body
}

// Log returns the mutation log in order.
func (d *Document) Log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.log)
}

// Rasters returns every recorded rasterization.
func (d *Document) Rasters() []RasterCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.rasters)
}

// Fail makes the named document operation return err (ErrInjected if nil).
func (d *Document) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	d.failures[op] = err
}

// Stall makes the named operation block until its context is done and
// return the context error. Supported: ScrollTo, SetInlineStyle and
// RemoveInlineStyle.
func (d *Document) Stall(op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stalls[op] = true
}

func (d *Document) stall(ctx context.Context, op string) error {
	d.mu.Lock()
	stalled := d.stalls[op]
	d.mu.Unlock()
	if !stalled {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// SetScroll sets the document scroll offset.
func (d *Document) SetScroll(p dom.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scroll = p
}

// Scroll returns the document scroll offset.
func (d *Document) Scroll() dom.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scroll
}

func (d *Document) logf(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

func (d *Document) appendLocked(parent, child *Node) {
	d.detachLocked(child)
	child.parent = parent
	parent.children = append(parent.children, child)
	child.setAttached(parent.attached)
}

func (d *Document) detachLocked(n *Node) {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
	n.setAttached(false)
}

func (n *Node) setAttached(v bool) {
	n.attached = v
	for _, c := range n.children {
		c.setAttached(v)
	}
}

// CreateElement implements dom.Document.
func (d *Document) CreateElement(ctx context.Context, tag string) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failures["CreateElement"]; err != nil {
		return nil, err
	}
	n := d.newNode(tag)
	d.logf("create %s", n.Key())
	return n, nil
}

// Body implements dom.Document.
func (d *Document) Body(ctx context.Context) (dom.Element, error) {
	return d.body, nil
}

// ScrollOffset implements dom.Document.
func (d *Document) ScrollOffset(ctx context.Context) (dom.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failures["ScrollOffset"]; err != nil {
		return dom.Point{}, err
	}
	return d.scroll, nil
}

// ScrollTo implements dom.Document.
func (d *Document) ScrollTo(ctx context.Context, p dom.Point) error {
	if err := d.stall(ctx, "ScrollTo"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failures["ScrollTo"]; err != nil {
		return err
	}
	d.scroll = p
	d.logf("scroll %v,%v", p.X, p.Y)
	return nil
}

// Rasterize implements dom.Document. The default rasterizer fills the
// buffer with the node's inline background-color, falling back to the
// request background.
func (d *Document) Rasterize(ctx context.Context, el dom.Element, req dom.RasterRequest) (image.Image, error) {
	n, ok := el.(*Node)
	if !ok {
		return nil, fmt.Errorf("domtest: foreign element %T", el)
	}

	d.mu.Lock()
	d.rasters = append(d.rasters, RasterCall{
		Key:      n.Key(),
		Request:  req,
		Styles:   maps.Clone(n.styles),
		Attrs:    maps.Clone(n.attrs),
		Attached: n.attached,
	})
	d.logf("raster %s", n.Key())
	err := d.failures["Rasterize"]
	fn := d.Raster
	fill := n.styles["background-color"].Value
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, n, req)
	}
	if fill == "" {
		fill = req.Background
	}
	return SolidImage(req, ParseHex(fill)), nil
}

// SolidImage returns a buffer sized for req filled with c.
func SolidImage(req dom.RasterRequest, c color.Color) *image.RGBA {
	w := int(math.Round(float64(req.Width) * req.Scale))
	h := int(math.Round(float64(req.Height) * req.Scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// ParseHex parses #rgb or #rrggbb, returning opaque white otherwise.
func ParseHex(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Key implements dom.Element.
func (n *Node) Key() string {
	return "n" + strconv.Itoa(n.id)
}

// Document implements dom.Element.
func (n *Node) Document() dom.Document {
	return n.doc
}

// Tag returns the node tag name.
func (n *Node) Tag() string {
	return n.tag
}

// Fail makes the named node operation return err (ErrInjected if nil).
func (n *Node) Fail(op string, err error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	n.failures[op] = err
}

// Heal clears every injected failure on the node.
func (n *Node) Heal() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	clear(n.failures)
}

// SetStyle sets an inline declaration without logging (test setup).
func (n *Node) SetStyle(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.styles[name] = dom.Property{Value: value}
}

// SetImportant sets an inline declaration with !important priority.
func (n *Node) SetImportant(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.styles[name] = dom.Property{Value: value, Priority: "important"}
}

// SetAttr sets an attribute without logging (test setup).
func (n *Node) SetAttr(name, value string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.attrs[name] = value
}

// SetTransform sets the stylesheet-resolved transform of the node.
func (n *Node) SetTransform(t string) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	n.transform = t
}

// Styles returns a copy of the inline declarations.
func (n *Node) Styles() map[string]dom.Property {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return maps.Clone(n.styles)
}

// Attrs returns a copy of the attributes.
func (n *Node) Attrs() map[string]string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return maps.Clone(n.attrs)
}

// Parent returns the parent node, nil when detached.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return slices.Clone(n.children)
}

// Attached reports whether the node is reachable from the body.
func (n *Node) Attached() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.attached
}

func (n *Node) fail(op string) error {
	if err := n.failures[op]; err != nil {
		return err
	}
	return nil
}

// InlineStyle implements dom.Element.
func (n *Node) InlineStyle(ctx context.Context, name string) (dom.Property, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("InlineStyle"); err != nil {
		return dom.Property{}, err
	}
	return n.styles[name], nil
}

// SetInlineStyle implements dom.Element.
func (n *Node) SetInlineStyle(ctx context.Context, name string, p dom.Property) error {
	if err := n.doc.stall(ctx, "SetInlineStyle"); err != nil {
		return err
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("SetInlineStyle"); err != nil {
		return err
	}
	if p.Value == "" {
		delete(n.styles, name)
	} else {
		n.styles[name] = p
	}
	n.doc.logf("style %s %s=%s", n.Key(), name, p.Value)
	return nil
}

// RemoveInlineStyle implements dom.Element.
func (n *Node) RemoveInlineStyle(ctx context.Context, name string) error {
	if err := n.doc.stall(ctx, "RemoveInlineStyle"); err != nil {
		return err
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("RemoveInlineStyle"); err != nil {
		return err
	}
	delete(n.styles, name)
	n.doc.logf("unstyle %s %s", n.Key(), name)
	return nil
}

// Attribute implements dom.Element.
func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("Attribute"); err != nil {
		return "", false, err
	}
	v, ok := n.attrs[name]
	return v, ok, nil
}

// SetAttribute implements dom.Element.
func (n *Node) SetAttribute(ctx context.Context, name, value string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("SetAttribute"); err != nil {
		return err
	}
	n.attrs[name] = value
	n.doc.logf("attr %s %s=%s", n.Key(), name, value)
	return nil
}

// RemoveAttribute implements dom.Element.
func (n *Node) RemoveAttribute(ctx context.Context, name string) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("RemoveAttribute"); err != nil {
		return err
	}
	delete(n.attrs, name)
	n.doc.logf("unattr %s %s", n.Key(), name)
	return nil
}

// ComputedTransform implements dom.Element. An inline transform wins over
// the stylesheet value.
func (n *Node) ComputedTransform(ctx context.Context) (string, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("ComputedTransform"); err != nil {
		return "", err
	}
	return n.computedTransformLocked(), nil
}

func (n *Node) computedTransformLocked() string {
	if p, ok := n.styles["transform"]; ok && p.Value != "" {
		return p.Value
	}
	if n.transform == "" {
		return "none"
	}
	return n.transform
}

// TransformedDescendants implements dom.Element.
func (n *Node) TransformedDescendants(ctx context.Context) ([]dom.Element, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("TransformedDescendants"); err != nil {
		return nil, err
	}
	var out []dom.Element
	var walk func(*Node)
	walk = func(p *Node) {
		for _, c := range p.children {
			if c.computedTransformLocked() != "none" {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out, nil
}

// LayoutSize implements dom.Element. Inline pixel width and height override
// the configured layout box.
func (n *Node) LayoutSize(ctx context.Context) (dom.Size, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("LayoutSize"); err != nil {
		return dom.Size{}, err
	}
	s := n.layout
	if w, ok := pixels(n.styles["width"].Value); ok {
		s.Width = w
	}
	if h, ok := pixels(n.styles["height"].Value); ok {
		s.Height = h
	}
	return s, nil
}

func pixels(v string) (int, bool) {
	v, ok := strings.CutSuffix(v, "px")
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

// Clone implements dom.Element.
func (n *Node) Clone(ctx context.Context) (dom.Element, error) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("Clone"); err != nil {
		return nil, err
	}
	c := n.cloneLocked()
	n.doc.logf("clone %s -> %s", n.Key(), c.Key())
	return c, nil
}

func (n *Node) cloneLocked() *Node {
	c := n.doc.newNode(n.tag)
	c.styles = maps.Clone(n.styles)
	c.attrs = maps.Clone(n.attrs)
	c.transform = n.transform
	c.layout = n.layout
	for _, child := range n.children {
		cc := child.cloneLocked()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// AppendChild implements dom.Element.
func (n *Node) AppendChild(ctx context.Context, child dom.Element) error {
	c, ok := child.(*Node)
	if !ok {
		return fmt.Errorf("domtest: foreign element %T", child)
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("AppendChild"); err != nil {
		return err
	}
	n.doc.appendLocked(n, c)
	n.doc.logf("append %s <- %s", n.Key(), c.Key())
	return nil
}

// Before implements dom.Element.
func (n *Node) Before(ctx context.Context, node dom.Element) error {
	c, ok := node.(*Node)
	if !ok {
		return fmt.Errorf("domtest: foreign element %T", node)
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("Before"); err != nil {
		return err
	}
	if n.parent == nil {
		return dom.ErrDetached
	}
	n.doc.detachLocked(c)
	p := n.parent
	i := slices.Index(p.children, n)
	p.children = slices.Insert(p.children, i, c)
	c.parent = p
	c.setAttached(p.attached)
	n.doc.logf("before %s <- %s", n.Key(), c.Key())
	return nil
}

// Remove implements dom.Element.
func (n *Node) Remove(ctx context.Context) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if err := n.fail("Remove"); err != nil {
		return err
	}
	n.doc.detachLocked(n)
	n.doc.logf("remove %s", n.Key())
	return nil
}
