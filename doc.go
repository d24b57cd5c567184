// Package thumbshot captures fixed-size raster thumbnails of elements in a
// live, rendered page.
//
// # Quick Start
//
// Open a page in headless Chrome, pick an element and capture it:
//
//	browser := thumbshot.NewBrowser()
//	defer browser.Close()
//
//	page, err := browser.Open(ctx, "file:///path/to/template.html")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer page.Close()
//
//	el, err := page.Query(ctx, ".template")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	capt := thumbshot.New()
//	result, err := capt.Generate(ctx, el, thumbshot.ThumbnailOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("thumb.webp", result.Primary.Data, 0o644)
//
// The result holds the preferred encoding (Primary), a JPEG encoding every
// consumer can read (Fallback) and a Metadata record with the requested
// logical size, the staging mode and an estimated file size.
//
// # Capture Pipeline
//
// Each capture walks the same states:
//
//  1. Staging: the element's computed transform decides the mode. An
//     element shown at its native scale is captured in place; a scaled
//     element (a template shrunk into a sidebar) is deep-copied into an
//     off-screen container at its native size.
//  2. Rendering: after a short settle delay, the staged node is rasterized
//     at the requested magnification.
//  3. PostProcessing: the buffer is fitted to the output size and the
//     optional soft shadow and reflection are drawn into it.
//  4. Encoding: the preferred format is produced, with JPEG as fallback.
//  5. CleaningUp: every inline style and attribute touched is restored and
//     the stage is removed, on success and on failure alike.
//
// # Concurrency
//
// A Capturer is safe for concurrent use. Its captures run one at a time,
// and a process-wide per-element lock keeps two captures of the same live
// element from interleaving even across Capturers.
//
// # Batches
//
// RunBatch captures items strictly in order with a pacing delay between
// them. A failing item becomes a *BatchItemError in its slot and never
// stops the items after it:
//
//	results := capt.RunBatch(ctx, []thumbshot.BatchItem{
//	    {ID: "invoice", Element: a},
//	    {ID: "letter", Element: b},
//	})
//
// # Configuration
//
// Capturer-wide settings use functional options; per-capture settings use
// CaptureOption overrides applied to a copy of the defaults:
//
//	capt := thumbshot.New(
//	    thumbshot.WithRenderTimeout(10*time.Second),
//	    thumbshot.WithDefaults(thumbshot.WithFormat(thumbshot.FormatPNG)),
//	)
//	result, err := capt.Generate(ctx, el, thumbshot.WithMagnification(3))
package thumbshot
