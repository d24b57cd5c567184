package thumbshot

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one browser is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// BrowserPool hands out up to n Browsers for captures running in parallel,
// one document per browser. Browsers are created lazily on first acquire.
// Captures on one Browser should still go through a single Capturer.
type BrowserPool struct {
	size     int
	opts     []BrowserOption
	browsers []*Browser
	sem      chan *Browser
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewBrowserPool creates a pool with capacity for n browsers built with
// opts.
func NewBrowserPool(n int, opts ...BrowserOption) *BrowserPool {
	if n < 1 {
		n = 1
	}
	return &BrowserPool{
		size:     n,
		opts:     opts,
		browsers: make([]*Browser, 0, n),
		sem:      make(chan *Browser, n),
	}
}

// Acquire gets a browser from the pool, creating one if needed.
// Blocks if all browsers are in use.
func (p *BrowserPool) Acquire() *Browser {
	select {
	case b := <-p.sem:
		return b
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		b := NewBrowser(p.opts...)
		p.browsers = append(p.browsers, b)
		p.mu.Unlock()
		return b
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a browser to the pool.
func (p *BrowserPool) Release(b *Browser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || b == nil {
		return
	}
	p.sem <- b
}

// Close closes every browser the pool created.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	browsers := p.browsers
	p.mu.Unlock()

	var errs []error
	for _, b := range browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *BrowserPool) Size() int {
	return p.size
}

// ResolvePoolSize returns workers when positive, else half of GOMAXPROCS
// bounded to [MinPoolSize, MaxPoolSize].
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}
	return min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)
}
