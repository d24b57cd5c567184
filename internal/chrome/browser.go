// Package chrome implements the dom interfaces on top of headless Chrome
// driven through go-rod.
//
// A Browser is either launched locally (lazily, on first use) or attached to
// a running instance through its DevTools URL. Pages opened by the Browser
// are owned and closed with it; pages found with Attach belong to whoever
// opened them and are never closed.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-thumbshot/internal/fileutil"
	"github.com/alnah/go-thumbshot/internal/process"
)

// DefaultTimeout bounds page loads when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect  = errors.New("failed to connect to browser")
	ErrAttach          = errors.New("cannot reach remote browser")
	ErrPageCreate      = errors.New("failed to create browser page")
	ErrPageLoad        = errors.New("failed to load page")
	ErrPageNotFound    = errors.New("no open page matches")
	ErrElementNotFound = errors.New("no element matches selector")
	ErrForeignElement  = errors.New("element belongs to another engine")
	ErrClosed          = errors.New("browser is closed")
)

// Browser owns one Chrome connection.
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	closed   bool

	remoteURL string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Browser.
type Option func(*Browser)

// WithRemoteURL attaches to a running browser instead of launching one.
// Both ws:// DevTools URLs and http://host:port endpoints are accepted.
func WithRemoteURL(u string) Option {
	return func(b *Browser) { b.remoteURL = strings.TrimSpace(u) }
}

// WithTimeout sets the page load timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Browser. Nothing is launched until a page is requested.
func New(opts ...Option) *Browser {
	b := &Browser{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Remote reports whether the browser is attached rather than launched.
func (b *Browser) Remote() bool {
	return b.remoteURL != ""
}

// ensure lazily connects to the browser.
func (b *Browser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if b.browser != nil {
		return b.browser, nil
	}

	var controlURL string
	if b.Remote() {
		u, err := launcher.ResolveURL(b.remoteURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w %s: %v", ErrBrowserConnect, ErrAttach, b.remoteURL, err)
		}
		controlURL = u
		b.logger.Debug("attaching to browser", "url", controlURL)
	} else {
		l := launcher.New()

		// Pre-installed browser (Docker/containerized environments)
		if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
			l = l.Bin(bin)
		}
		if noSandbox() {
			l = l.NoSandbox(true)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		controlURL = u
		b.launcher = l
		b.logger.Debug("launched browser", "url", controlURL, "pid", l.PID())
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		b.killLocked()
		if b.Remote() {
			return nil, fmt.Errorf("%w: %w %s: %v", ErrBrowserConnect, ErrAttach, b.remoteURL, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b.browser = browser
	return browser, nil
}

// noSandbox reports whether Chrome must run without its sandbox, which CI
// runners and containers require.
func noSandbox() bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("ROD_NO_SANDBOX") == "true" ||
		os.Getenv("ROD_BROWSER_BIN") != ""
}

// Open navigates a new owned tab to url and waits for it to load.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := b.ensure()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	p := newPage(b, page, true)

	if err := p.waitLoad(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// OpenHTML loads an HTML document into a new owned tab. A local browser
// reads it from a temporary file so relative file:// references resolve;
// a remote browser cannot see local files and gets the markup directly.
func (b *Browser) OpenHTML(ctx context.Context, html string) (*Page, error) {
	if !b.Remote() {
		path, cleanup, err := fileutil.WriteTempFile(html, "html")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
		}
		p, err := b.Open(ctx, "file://"+path)
		if err != nil {
			cleanup()
			return nil, err
		}
		p.cleanup = cleanup
		return p, nil
	}

	p, err := b.Open(ctx, "about:blank")
	if err != nil {
		return nil, err
	}
	if err := p.page.Context(ctx).SetDocumentContent(html); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.waitLoad(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// Attach returns an already open tab whose URL contains match. An empty
// match selects the first tab that is not blank. The tab is not owned.
func (b *Browser) Attach(ctx context.Context, match string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := b.ensure()
	if err != nil {
		return nil, err
	}

	pages, err := browser.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	for _, page := range pages {
		info, err := page.Info()
		if err != nil {
			continue
		}
		if match == "" && (info.URL == "" || info.URL == "about:blank") {
			continue
		}
		if strings.Contains(info.URL, match) {
			b.logger.Debug("attached to page", "url", info.URL)
			return newPage(b, page, false), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPageNotFound, match)
}

// Close shuts down a launched browser. An attached browser is only
// disconnected from; its process and tabs are left running.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.Remote() {
		b.browser = nil
		return nil
	}

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	b.killLocked()
	return err
}

// killLocked terminates the launched process tree. Chrome spawns renderer
// and GPU children that a plain Close can leave behind.
func (b *Browser) killLocked() {
	if b.launcher == nil {
		return
	}
	if pid := b.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	b.launcher.Kill()
	b.launcher.Cleanup()
	b.launcher = nil
}

// loadTimeout returns the remaining budget for a page load.
func (b *Browser) loadTimeout(ctx context.Context) (time.Duration, error) {
	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return 0, context.DeadlineExceeded
		}
	}
	return timeout, nil
}
