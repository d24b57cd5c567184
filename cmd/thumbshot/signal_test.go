package main

// Notes:
// - Real signal delivery is not exercised; only cancellation through stop()
//   and through the parent context.

import (
	"context"
	"testing"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("open until stopped", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		if ctx.Err() != nil {
			t.Fatalf("fresh context error = %v", ctx.Err())
		}
		stop()
		if ctx.Err() == nil {
			t.Error("context still open after stop()")
		}
	})

	t.Run("follows parent", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		<-ctx.Done()
		if ctx.Err() == nil {
			t.Error("context open after parent cancel")
		}
	})
}
