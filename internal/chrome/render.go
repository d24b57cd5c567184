package chrome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"image"
	"image/png"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-thumbshot/internal/dom"
	"github.com/alnah/go-thumbshot/internal/fileutil"
)

// snapshot is the serialized state of a staged subtree.
type snapshot struct {
	HTML      string   `json:"html"`
	Styles    []string `json:"styles"`
	Base      string   `json:"base"`
	HTMLClass string   `json:"htmlClass"`
	HTMLStyle string   `json:"htmlStyle"`
	BodyClass string   `json:"bodyClass"`
	BodyStyle string   `json:"bodyStyle"`
}

// Rasterize implements dom.Document. The subtree is serialized with the
// page stylesheets into a background render tab and screenshotted there,
// leaving the live page untouched. Styles inherited from ancestors of the
// subtree are not carried over.
func (p *Page) Rasterize(ctx context.Context, el dom.Element, req dom.RasterRequest) (image.Image, error) {
	n, err := p.own(el)
	if err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("empty render box %dx%d", req.Width, req.Height)
	}
	if req.Scale <= 0 {
		req.Scale = 1
	}

	if _, err := n.eval(ctx, jsWaitAssets); err != nil {
		return nil, fmt.Errorf("waiting for assets: %w", err)
	}
	raw, err := n.eval(ctx, jsBrokenImages)
	if err != nil {
		return nil, err
	}
	if err := unreadable(raw); err != nil {
		return nil, err
	}

	var snap snapshot
	if err := n.evalJSON(ctx, jsSerialize, &snap); err != nil {
		return nil, fmt.Errorf("serializing subtree: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tab, err := p.renderTabLocked(ctx)
	if err != nil {
		return nil, err
	}
	tab = tab.Context(ctx)

	if err := tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             req.Width,
		Height:            req.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("sizing render tab: %w", err)
	}

	cleanup, err := p.load(ctx, tab, renderDocument(snap, req))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := tab.Eval(jsWaitDocument); err != nil {
		return nil, fmt.Errorf("waiting for render tab: %w", err)
	}
	// Images can load in the live page and still fail here: a remote
	// browser cannot read file:// assets, and credentials are not carried.
	res, err := tab.Eval(jsBrokenDocumentImages)
	if err != nil {
		return nil, fmt.Errorf("checking render tab: %w", err)
	}
	if err := unreadable(res.Value.Str()); err != nil {
		return nil, err
	}

	data, err := tab.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			Width:  float64(req.Width),
			Height: float64(req.Height),
			Scale:  req.Scale,
		},
		FromSurface:           true,
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return img, nil
}

// unreadable decodes a JSON list of image sources that failed to load and
// reports them as ErrUnreadableContent.
func unreadable(raw string) error {
	var broken []string
	if err := json.Unmarshal([]byte(raw), &broken); err != nil {
		return fmt.Errorf("decoding script result: %w", err)
	}
	if len(broken) > 0 {
		return fmt.Errorf("%w: %s", dom.ErrUnreadableContent, strings.Join(broken, ", "))
	}
	return nil
}

// renderTabLocked lazily opens the background tab used for rendering.
func (p *Page) renderTabLocked(ctx context.Context) (*rod.Page, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if p.render != nil {
		return p.render, nil
	}
	browser, err := p.browser.ensure()
	if err != nil {
		return nil, err
	}
	tab, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank", Background: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	// Page stylesheets may be refused by a strict policy once inlined.
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(tab); err != nil {
		p.browser.logger.Debug("bypass CSP refused", "error", err)
	}
	p.render = tab
	return tab, nil
}

// load puts doc into tab. Documents based on file:// URLs must themselves
// be served from a file for Chrome to let them reach local assets, which
// only works when the browser runs on this machine.
func (p *Page) load(ctx context.Context, tab *rod.Page, doc string) (func(), error) {
	noop := func() {}
	if !strings.HasPrefix(p.URL(), "file://") || p.browser.Remote() {
		if err := tab.SetDocumentContent(doc); err != nil {
			return noop, fmt.Errorf("%w: %v", ErrPageLoad, err)
		}
		return noop, nil
	}

	path, cleanup, err := fileutil.WriteTempFile(doc, "html")
	if err != nil {
		return noop, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := tab.Navigate("file://" + path); err != nil {
		cleanup()
		return noop, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	timeout, err := p.browser.loadTimeout(ctx)
	if err != nil {
		cleanup()
		return noop, err
	}
	if err := tab.Timeout(timeout).WaitLoad(); err != nil {
		cleanup()
		return noop, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return cleanup, nil
}

// renderDocument builds the standalone page the subtree is rendered in.
func renderDocument(s snapshot, req dom.RasterRequest) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, `<html class="%s" style="%s"><head><meta charset="utf-8">`,
		html.EscapeString(s.HTMLClass), html.EscapeString(s.HTMLStyle))
	if s.Base != "" {
		fmt.Fprintf(&b, `<base href="%s">`, html.EscapeString(s.Base))
	}
	for _, style := range s.Styles {
		b.WriteString(style)
	}
	fmt.Fprintf(&b, `<style>html,body{margin:0!important;padding:0!important;overflow:hidden!important;background:%s!important}</style>`,
		cssValue(req.Background))
	fmt.Fprintf(&b, `</head><body class="%s" style="%s">`,
		html.EscapeString(s.BodyClass), html.EscapeString(s.BodyStyle))
	fmt.Fprintf(&b, `<div style="position:relative;width:%dpx;height:%dpx;overflow:hidden">%s</div>`,
		req.Width, req.Height, s.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

// cssValue strips characters that could terminate a declaration or the
// enclosing style element.
func cssValue(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '!':
			return -1
		}
		return r
	}, s)
	if strings.TrimSpace(s) == "" {
		return "transparent"
	}
	return s
}
