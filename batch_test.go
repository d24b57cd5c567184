package thumbshot

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-thumbshot/internal/dom"
	"github.com/alnah/go-thumbshot/internal/domtest"
)

func batchOf(doc *domtest.Document, n int) []BatchItem {
	items := make([]BatchItem, n)
	for i := range items {
		el := doc.NewElement(nil, "div", 60, 80)
		items[i] = BatchItem{ID: "item-" + string(rune('a'+i)), Element: el}
	}
	return items
}

func batchCapturer(opts ...Option) *Capturer {
	return newTestCapturer(append([]Option{WithDefaults(WithSize(60, 80))}, opts...)...)
}

// ---------------------------------------------------------------------------
// TestRunBatch - Isolation
// ---------------------------------------------------------------------------

func TestRunBatch_Isolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		broken func(item *BatchItem)
		want   error
	}{
		{
			name:   "nil element",
			broken: func(item *BatchItem) { item.Element = nil },
			want:   ErrNilElement,
		},
		{
			name: "engine failure",
			broken: func(item *BatchItem) {
				item.Element.(*domtest.Node).Fail("ComputedTransform", nil)
			},
			want: domtest.ErrInjected,
		},
		{
			name:   "typed nil element panics",
			broken: func(item *BatchItem) { item.Element = (*domtest.Node)(nil) },
			want:   ErrCapturePanic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := domtest.NewDocument()
			items := batchOf(doc, 5)
			const k = 2
			tt.broken(&items[k])

			results := batchCapturer().RunBatch(context.Background(), items)
			if len(results) != len(items) {
				t.Fatalf("RunBatch() returned %d results, want %d", len(results), len(items))
			}
			for i, r := range results {
				if r.ID != items[i].ID {
					t.Errorf("result %d ID = %q, want %q", i, r.ID, items[i].ID)
				}
				if i == k {
					continue
				}
				if r.Err != nil || r.Result == nil {
					t.Errorf("item %d = (%v, %v), want a result", i, r.Result, r.Err)
				}
			}

			bad := results[k]
			if bad.Result != nil {
				t.Error("failed item carries a result")
			}
			var ie *BatchItemError
			if !errors.As(bad.Err, &ie) || ie.Index != k || ie.ID != items[k].ID {
				t.Fatalf("item error = %v, want *BatchItemError for index %d", bad.Err, k)
			}
			if !errors.Is(bad.Err, ErrBatchItem) || !errors.Is(bad.Err, tt.want) {
				t.Errorf("item error = %v, want ErrBatchItem wrapping %v", bad.Err, tt.want)
			}
		})
	}
}

func TestRunBatch_Empty(t *testing.T) {
	t.Parallel()
	if got := batchCapturer().RunBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("RunBatch(nil) = %v, want empty", got)
	}
}

func TestRunBatch_AssignsIDs(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	items := batchOf(doc, 3)
	for i := range items {
		items[i].ID = ""
	}

	results := batchCapturer().BatchGenerate(context.Background(), items)
	seen := map[string]bool{}
	for i, r := range results {
		if r.ID == "" || seen[r.ID] {
			t.Errorf("result %d ID = %q, want unique non-empty", i, r.ID)
		}
		seen[r.ID] = true
	}
}

// ---------------------------------------------------------------------------
// TestRunBatch - Sequencing
// ---------------------------------------------------------------------------

func TestRunBatch_Sequential(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	var inFlight, peak atomic.Int32
	doc.Raster = func(_ context.Context, _ *domtest.Node, req dom.RasterRequest) (image.Image, error) {
		if cur := inFlight.Add(1); cur > peak.Load() {
			peak.Store(cur)
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return domtest.SolidImage(req, color.White), nil
	}

	items := batchOf(doc, 4)
	results := batchCapturer().RunBatch(context.Background(), items)

	if peak.Load() != 1 {
		t.Errorf("peak concurrent items = %d, want 1", peak.Load())
	}
	rasters := doc.Rasters()
	if len(rasters) != len(items) {
		t.Fatalf("rendered %d items, want %d", len(rasters), len(items))
	}
	for i, call := range rasters {
		if call.Key != items[i].Element.Key() {
			t.Errorf("render %d was %s, want %s", i, call.Key, items[i].Element.Key())
		}
		if results[i].Err != nil {
			t.Errorf("item %d error = %v", i, results[i].Err)
		}
	}
}

func TestRunBatch_Pacing(t *testing.T) {
	t.Parallel()

	doc := domtest.NewDocument()
	items := batchOf(doc, 3)
	c := batchCapturer(WithPacing(30 * time.Millisecond))

	start := time.Now()
	results := c.RunBatch(context.Background(), items)
	elapsed := time.Since(start)

	if elapsed < 55*time.Millisecond {
		t.Errorf("3 paced items took %v, want at least two pacing intervals", elapsed)
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("item %d error = %v", i, r.Err)
		}
	}
}

func TestRunBatch_Canceled(t *testing.T) {
	t.Parallel()

	for _, pacing := range []time.Duration{0, 10 * time.Millisecond} {
		t.Run(pacing.String(), func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var done atomic.Int32
			c := batchCapturer(WithPacing(pacing), WithStateObserver(func(_ string, s State) {
				if s == Done && done.Add(1) == 1 {
					cancel()
				}
			}))

			doc := domtest.NewDocument()
			items := batchOf(doc, 4)
			results := c.RunBatch(ctx, items)

			if len(results) != 4 {
				t.Fatalf("RunBatch() returned %d results, want 4", len(results))
			}
			if results[0].Err != nil {
				t.Errorf("first item error = %v", results[0].Err)
			}
			for i, r := range results[1:] {
				if !errors.Is(r.Err, context.Canceled) || !errors.Is(r.Err, ErrBatchItem) {
					t.Errorf("item %d error = %v, want canceled batch item", i+1, r.Err)
				}
			}
			if n := len(doc.Rasters()); n != 1 {
				t.Errorf("rendered %d items after cancel, want 1", n)
			}
		})
	}
}
