package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
)

// browserShooter opens documents in one browser and captures them with
// that browser's Capturer.
type browserShooter struct {
	browser *thumbshot.Browser
	capt    *thumbshot.Capturer
}

// Shoot implements Shooter.
func (s *browserShooter) Shoot(ctx context.Context, html, selector string, opts ...thumbshot.CaptureOption) (*thumbshot.CaptureResult, error) {
	page, err := s.browser.OpenHTML(ctx, html)
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	el, err := page.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	return s.capt.Generate(ctx, el, opts...)
}

// poolAdapter adapts thumbshot.BrowserPool to Pool. Each browser keeps its
// Capturer across acquisitions.
type poolAdapter struct {
	pool        *thumbshot.BrowserPool
	capturerOpt []thumbshot.Option

	mu       sync.Mutex
	shooters map[*thumbshot.Browser]*browserShooter
}

var _ Pool = (*poolAdapter)(nil)

// newBrowserPool creates a pool of size browsers configured from cfg.
func newBrowserPool(size int, cfg *config.Config, logger *slog.Logger) *poolAdapter {
	return &poolAdapter{
		pool:        thumbshot.NewBrowserPool(size, browserOptions(cfg, logger)...),
		capturerOpt: capturerOptions(cfg, logger),
		shooters:    make(map[*thumbshot.Browser]*browserShooter),
	}
}

// Acquire implements Pool.
func (p *poolAdapter) Acquire() Shooter {
	b := p.pool.Acquire()
	if b == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.shooters[b]
	if !ok {
		s = &browserShooter{browser: b, capt: thumbshot.New(p.capturerOpt...)}
		p.shooters[b] = s
	}
	return s
}

// Release implements Pool. Passing a Shooter this pool did not hand out
// is a programmer error.
func (p *poolAdapter) Release(s Shooter) {
	bs, ok := s.(*browserShooter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", s))
	}
	p.pool.Release(bs.browser)
}

// Size implements Pool.
func (p *poolAdapter) Size() int {
	return p.pool.Size()
}

// Close closes every browser.
func (p *poolAdapter) Close() error {
	return p.pool.Close()
}
