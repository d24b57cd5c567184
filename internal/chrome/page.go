package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"

	"github.com/alnah/go-thumbshot/internal/dom"
)

var _ dom.Document = (*Page)(nil)

// Page is a Chrome tab hosting a live visual tree.
type Page struct {
	browser *Browser
	page    *rod.Page
	owned   bool
	cleanup func()

	mu     sync.Mutex
	render *rod.Page
	closed bool
}

func newPage(b *Browser, page *rod.Page, owned bool) *Page {
	return &Page{browser: b, page: page, owned: owned}
}

// Rod exposes the underlying go-rod page.
func (p *Page) Rod() *rod.Page { return p.page }

// URL returns the current page URL.
func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *Page) waitLoad(ctx context.Context) error {
	timeout, err := p.browser.loadTimeout(ctx)
	if err != nil {
		return err
	}
	if err := p.page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return ctx.Err()
}

// Query returns the first element matching the CSS selector.
func (p *Page) Query(ctx context.Context, selector string) (*Node, error) {
	nodes, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// QueryAll returns every element matching the CSS selector, in document
// order. It fails with ErrElementNotFound when nothing matches.
func (p *Page) QueryAll(ctx context.Context, selector string) ([]*Node, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
	}
	nodes := make([]*Node, 0, len(els))
	for _, el := range els {
		n, err := newNode(ctx, p, el)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// CreateElement implements dom.Document.
func (p *Page) CreateElement(ctx context.Context, tag string) (dom.Element, error) {
	el, err := p.page.Context(ctx).ElementByJS(rod.Eval(jsCreateElement, tag))
	if err != nil {
		return nil, err
	}
	return newNode(ctx, p, el)
}

// Body implements dom.Document.
func (p *Page) Body(ctx context.Context) (dom.Element, error) {
	el, err := p.page.Context(ctx).ElementByJS(rod.Eval(jsBody))
	if err != nil {
		return nil, err
	}
	return newNode(ctx, p, el)
}

// ScrollOffset implements dom.Document.
func (p *Page) ScrollOffset(ctx context.Context) (dom.Point, error) {
	var pt dom.Point
	res, err := p.page.Context(ctx).Eval(jsScrollOffset)
	if err != nil {
		return pt, err
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &pt); err != nil {
		return pt, fmt.Errorf("decoding scroll offset: %w", err)
	}
	return pt, nil
}

// ScrollTo implements dom.Document.
func (p *Page) ScrollTo(ctx context.Context, pt dom.Point) error {
	_, err := p.page.Context(ctx).Eval(jsScrollTo, pt.X, pt.Y)
	return err
}

// own returns el as a node of this page.
func (p *Page) own(el dom.Element) (*Node, error) {
	n, ok := el.(*Node)
	if !ok || n.page != p {
		return nil, ErrForeignElement
	}
	return n, nil
}

// Close closes the render tab and, when owned, the page itself.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.render != nil {
		errs = append(errs, p.render.Close())
		p.render = nil
	}
	if p.owned {
		errs = append(errs, p.page.Close())
	}
	if p.cleanup != nil {
		p.cleanup()
	}
	return errors.Join(errs...)
}
