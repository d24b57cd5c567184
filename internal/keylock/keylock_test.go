package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLock_Exclusive(t *testing.T) {
	t.Parallel()
	r := New()

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := r.Lock(context.Background(), "n1")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if peak.Load() != 1 {
		t.Errorf("peak holders = %d, want 1", peak.Load())
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after all unlocks, want 0", r.Len())
	}
}

func TestLock_DistinctKeysIndependent(t *testing.T) {
	t.Parallel()
	r := New()
	ctx := context.Background()

	a, err := r.Lock(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer a()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	b, err := r.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock(b) blocked by a: %v", err)
	}
	b()
}

func TestLock_ContextCanceled(t *testing.T) {
	t.Parallel()
	r := New()

	unlock, _ := r.Lock(context.Background(), "k")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := r.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() error = %v, want DeadlineExceeded", err)
	}
	unlock()
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestUnlock_Idempotent(t *testing.T) {
	t.Parallel()
	r := New()
	unlock, _ := r.Lock(context.Background(), "k")
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	again, err := r.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("Lock() after double unlock error = %v", err)
	}
	again()
}
