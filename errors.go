package thumbshot

import (
	"errors"
	"fmt"

	"github.com/alnah/go-thumbshot/internal/chrome"
	"github.com/alnah/go-thumbshot/internal/dom"
	"github.com/alnah/go-thumbshot/internal/encode"
	"github.com/alnah/go-thumbshot/internal/raster"
	"github.com/alnah/go-thumbshot/internal/style"
)

// Sentinel errors for library operations.
var (
	ErrNilElement     = errors.New("element cannot be nil")
	ErrInvalidOptions = errors.New("invalid capture options")
	ErrBatchItem      = errors.New("batch item failed")
	ErrCapturePanic   = errors.New("capture panicked")

	// ErrRasterization covers every failure to produce pixels: engine
	// errors, timeouts and a failing fallback encoding.
	ErrRasterization = raster.ErrRasterization

	// ErrStyleRestore is logged when restoring the element fails. It never
	// replaces the outcome of a capture.
	ErrStyleRestore = style.ErrRestore

	// ErrEncodingUnsupported is handled by falling back to JPEG and only
	// appears in logs.
	ErrEncodingUnsupported = encode.ErrUnsupported

	// ErrUnreadableContent indicates the element references an image the
	// engine could not load.
	ErrUnreadableContent = dom.ErrUnreadableContent

	// Engine errors.
	ErrBrowserConnect  = chrome.ErrBrowserConnect
	ErrAttach          = chrome.ErrAttach
	ErrPageCreate      = chrome.ErrPageCreate
	ErrPageLoad        = chrome.ErrPageLoad
	ErrPageNotFound    = chrome.ErrPageNotFound
	ErrElementNotFound = chrome.ErrElementNotFound
)

// CaptureError reports a failed capture and the state it failed in.
// Cleanup has always run by the time a CaptureError is returned.
type CaptureError struct {
	Stage State
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed while %s: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// BatchItemError is the error recorded in the slot of a failed batch item.
// It matches ErrBatchItem with errors.Is.
type BatchItemError struct {
	Index int
	ID    string
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("batch item %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBatchItem.
func (e *BatchItemError) Is(target error) bool {
	return target == ErrBatchItem
}
