package thumbshot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alnah/go-thumbshot/internal/dom"
)

// BatchItem is one element to capture in a batch.
type BatchItem struct {
	// ID identifies the item in its result. A random ID is assigned when
	// empty.
	ID      string
	Element dom.Element
}

// BatchResult is the outcome of one batch item. Exactly one of Result and
// Err is set; Err is always a *BatchItemError.
type BatchResult struct {
	ID     string
	Result *CaptureResult
	Err    error
}

// RunBatch captures items one after another and returns one result per
// item, in order. Item starts are spaced by the pacing delay. A failed item
// is recorded and the batch moves on; once ctx is done every remaining item
// is recorded with the context error.
func (c *Capturer) RunBatch(ctx context.Context, items []BatchItem, overrides ...CaptureOption) []BatchResult {
	results := make([]BatchResult, len(items))

	var pace *rate.Limiter
	if c.pacing > 0 {
		pace = rate.NewLimiter(rate.Every(c.pacing), 1)
	}

	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		results[i].ID = id

		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				results[i].Err = &BatchItemError{Index: i, ID: id, Err: err}
				continue
			}
		} else if err := ctx.Err(); err != nil {
			results[i].Err = &BatchItemError{Index: i, ID: id, Err: err}
			continue
		}

		res, err := c.batchItem(ctx, item.Element, overrides)
		if err != nil {
			c.logger.Warn("batch item failed", "index", i, "id", id, "error", err)
			results[i].Err = &BatchItemError{Index: i, ID: id, Err: err}
			continue
		}
		results[i].Result = res
	}
	return results
}

// BatchGenerate is RunBatch.
func (c *Capturer) BatchGenerate(ctx context.Context, items []BatchItem, overrides ...CaptureOption) []BatchResult {
	return c.RunBatch(ctx, items, overrides...)
}

// batchItem runs one capture, turning a panic that escapes it into an error.
func (c *Capturer) batchItem(ctx context.Context, el dom.Element, overrides []CaptureOption) (res *CaptureResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrCapturePanic, p)
		}
	}()
	return c.Generate(ctx, el, overrides...)
}
