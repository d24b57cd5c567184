package thumbshot

import (
	"log/slog"
	"time"

	"github.com/alnah/go-thumbshot/internal/chrome"
	"github.com/alnah/go-thumbshot/internal/dom"
)

// Element is a node of a live page. Elements come from Page.Query.
type Element = dom.Element

// Document is the page hosting an Element.
type Document = dom.Document

// Browser is a headless Chrome instance, launched on first use or reached
// through a DevTools URL.
type Browser = chrome.Browser

// Page is a tab of a Browser.
type Page = chrome.Page

// BrowserOption configures a Browser.
type BrowserOption = chrome.Option

// NewBrowser returns a Browser. Nothing is launched until the first page
// is opened.
func NewBrowser(opts ...BrowserOption) *Browser {
	return chrome.New(opts...)
}

// WithBrowserURL attaches to a running browser instead of launching one.
// Accepts a ws:// DevTools URL or an http:// debugging endpoint.
func WithBrowserURL(u string) BrowserOption {
	return chrome.WithRemoteURL(u)
}

// WithBrowserTimeout bounds page loads.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return chrome.WithTimeout(d)
}

// WithBrowserLogger sets the browser logger.
func WithBrowserLogger(l *slog.Logger) BrowserOption {
	return chrome.WithLogger(l)
}
