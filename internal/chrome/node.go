package chrome

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-thumbshot/internal/dom"
)

var _ dom.Element = (*Node)(nil)

// Node is an element of a Chrome page.
type Node struct {
	page *Page
	el   *rod.Element
	key  string
}

// newNode wraps el, keying it by its page target and backend node id.
// Backend ids are only unique within one renderer.
func newNode(ctx context.Context, p *Page, el *rod.Element) (*Node, error) {
	desc, err := el.Context(ctx).Describe(0, false)
	if err != nil {
		return nil, fmt.Errorf("describing element: %w", err)
	}
	return &Node{
		page: p,
		el:   el,
		key:  nodeKey(p, desc.BackendNodeID),
	}, nil
}

func nodeKey(p *Page, id proto.DOMBackendNodeID) string {
	var target proto.TargetTargetID
	if p != nil && p.page != nil {
		target = p.page.TargetID
	}
	return fmt.Sprintf("node:%s:%d", target, id)
}

// Key implements dom.Element.
func (n *Node) Key() string { return n.key }

// Document implements dom.Element.
func (n *Node) Document() dom.Document { return n.page }

// Rod exposes the underlying go-rod element.
func (n *Node) Rod() *rod.Element { return n.el }

func (n *Node) eval(ctx context.Context, js string, args ...any) (string, error) {
	res, err := n.el.Context(ctx).Eval(js, args...)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (n *Node) evalJSON(ctx context.Context, js string, out any, args ...any) error {
	raw, err := n.eval(ctx, js, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding script result: %w", err)
	}
	return nil
}

// InlineStyle implements dom.Element.
func (n *Node) InlineStyle(ctx context.Context, name string) (dom.Property, error) {
	var p dom.Property
	err := n.evalJSON(ctx, jsInlineStyle, &p, name)
	return p, err
}

// SetInlineStyle implements dom.Element.
func (n *Node) SetInlineStyle(ctx context.Context, name string, p dom.Property) error {
	_, err := n.eval(ctx, jsSetInlineStyle, name, p.Value, p.Priority)
	return err
}

// RemoveInlineStyle implements dom.Element.
func (n *Node) RemoveInlineStyle(ctx context.Context, name string) error {
	_, err := n.eval(ctx, jsRemoveInlineStyle, name)
	return err
}

// Attribute implements dom.Element.
func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	var a struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := n.evalJSON(ctx, jsAttribute, &a, name); err != nil {
		return "", false, err
	}
	return a.Value, a.Present, nil
}

// SetAttribute implements dom.Element.
func (n *Node) SetAttribute(ctx context.Context, name, value string) error {
	_, err := n.eval(ctx, jsSetAttribute, name, value)
	return err
}

// RemoveAttribute implements dom.Element.
func (n *Node) RemoveAttribute(ctx context.Context, name string) error {
	_, err := n.eval(ctx, jsRemoveAttribute, name)
	return err
}

// ComputedTransform implements dom.Element.
func (n *Node) ComputedTransform(ctx context.Context) (string, error) {
	return n.eval(ctx, jsComputedTransform)
}

// TransformedDescendants implements dom.Element.
func (n *Node) TransformedDescendants(ctx context.Context) ([]dom.Element, error) {
	els, err := n.el.Context(ctx).ElementsByJS(rod.Eval(jsTransformedDescendants))
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, 0, len(els))
	for _, el := range els {
		node, err := newNode(ctx, n.page, el)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// LayoutSize implements dom.Element.
func (n *Node) LayoutSize(ctx context.Context) (dom.Size, error) {
	var s dom.Size
	err := n.evalJSON(ctx, jsLayoutSize, &s)
	return s, err
}

// Clone implements dom.Element.
func (n *Node) Clone(ctx context.Context) (dom.Element, error) {
	el, err := n.el.Context(ctx).ElementByJS(rod.Eval(jsClone))
	if err != nil {
		return nil, err
	}
	return newNode(ctx, n.page, el)
}

// AppendChild implements dom.Element.
func (n *Node) AppendChild(ctx context.Context, child dom.Element) error {
	c, err := n.page.own(child)
	if err != nil {
		return err
	}
	_, err = n.el.Context(ctx).Eval(jsAppendChild, c.el.Object)
	return err
}

// Before implements dom.Element.
func (n *Node) Before(ctx context.Context, node dom.Element) error {
	c, err := n.page.own(node)
	if err != nil {
		return err
	}
	_, err = n.el.Context(ctx).Eval(jsBefore, c.el.Object)
	return err
}

// Remove implements dom.Element.
func (n *Node) Remove(ctx context.Context) error {
	_, err := n.eval(ctx, jsRemove)
	return err
}
