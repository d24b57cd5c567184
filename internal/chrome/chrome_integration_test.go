//go:build integration

package chrome

// Notes:
// - Requires Chrome; rod downloads Chromium on first run if none is found.
// - One browser is shared by every test and closed in TestMain.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-thumbshot/internal/dom"
)

const testTimeout = 30 * time.Second

var testBrowser *Browser

func TestMain(m *testing.M) {
	testBrowser = New(WithTimeout(testTimeout))
	code := m.Run()
	_ = testBrowser.Close()
	os.Exit(code)
}

const testHTML = `<!DOCTYPE html>
<html><head><style>
  .card { width: 200px; height: 100px; background: rgb(255, 0, 0); border: 2px solid black; }
  .scaled { transform: scale(0.5); }
</style></head>
<body>
  <div id="card" class="card" style="color: blue !important">card</div>
  <div id="wrap"><div class="scaled card">inner</div></div>
  <div id="broken"><img src="file:///definitely/missing.png"></div>
</body></html>`

func openTestPage(t *testing.T) *Page {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	p, err := testBrowser.OpenHTML(ctx, testHTML)
	if err != nil {
		t.Fatalf("OpenHTML() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNode_InlineStyle_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := openTestPage(t)

	card, err := p.Query(ctx, "#card")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	got, err := card.InlineStyle(ctx, "color")
	if err != nil {
		t.Fatalf("InlineStyle() error = %v", err)
	}
	if got.Value != "blue" || got.Priority != "important" {
		t.Errorf("InlineStyle(color) = %+v, want blue/important", got)
	}

	if err := card.SetInlineStyle(ctx, "margin-top", dom.Property{Value: "4px"}); err != nil {
		t.Fatalf("SetInlineStyle() error = %v", err)
	}
	if got, _ := card.InlineStyle(ctx, "margin-top"); got.Value != "4px" || got.Priority != "" {
		t.Errorf("margin-top = %+v, want 4px", got)
	}
	if err := card.RemoveInlineStyle(ctx, "margin-top"); err != nil {
		t.Fatalf("RemoveInlineStyle() error = %v", err)
	}
	if got, _ := card.InlineStyle(ctx, "margin-top"); got.Set() {
		t.Errorf("margin-top = %+v after removal", got)
	}

	class, ok, err := card.Attribute(ctx, "class")
	if err != nil || !ok || class != "card" {
		t.Errorf("Attribute(class) = %q, %v, %v", class, ok, err)
	}
	if _, ok, _ := card.Attribute(ctx, "data-missing"); ok {
		t.Error("Attribute(data-missing) reported present")
	}
}

func TestNode_TreeOps_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := openTestPage(t)

	wrap, err := p.Query(ctx, "#wrap")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	desc, err := wrap.TransformedDescendants(ctx)
	if err != nil {
		t.Fatalf("TransformedDescendants() error = %v", err)
	}
	if len(desc) != 1 {
		t.Fatalf("TransformedDescendants() = %d nodes, want 1", len(desc))
	}
	tr, err := desc[0].ComputedTransform(ctx)
	if err != nil || tr != "matrix(0.5, 0, 0, 0.5, 0, 0)" {
		t.Errorf("ComputedTransform() = %q, %v", tr, err)
	}
	if size, err := desc[0].LayoutSize(ctx); err != nil || size != (dom.Size{Width: 204, Height: 104}) {
		t.Errorf("LayoutSize() = %+v, %v; want untransformed 204x104", size, err)
	}

	clone, err := wrap.Clone(ctx)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if clone.Key() == wrap.Key() {
		t.Error("clone shares the key of its source")
	}
	body, err := p.Body(ctx)
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	if err := body.AppendChild(ctx, clone); err != nil {
		t.Fatalf("AppendChild() error = %v", err)
	}
	if all, _ := p.QueryAll(ctx, ".scaled"); len(all) != 2 {
		t.Errorf("QueryAll(.scaled) = %d after append, want 2", len(all))
	}
	if err := clone.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := p.Query(ctx, "#nope"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("Query(#nope) error = %v, want ErrElementNotFound", err)
	}
}

func TestPage_Rasterize_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := openTestPage(t)

	card, err := p.Query(ctx, "#card")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	img, err := p.Rasterize(ctx, card, dom.RasterRequest{Width: 204, Height: 104, Scale: 2, Background: "#ffffff"})
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 408 || b.Dy() != 208 {
		t.Errorf("Rasterize() size = %dx%d, want 408x208", b.Dx(), b.Dy())
	}
	r, g, _, _ := img.At(200, 100).RGBA()
	if c := (color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8)}); c.R < 200 || c.G > 50 {
		t.Errorf("center pixel = %v, want red", c)
	}
}

func TestPage_Rasterize_BrokenImage_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := openTestPage(t)

	broken, err := p.Query(ctx, "#broken")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	_, err = p.Rasterize(ctx, broken, dom.RasterRequest{Width: 50, Height: 50, Scale: 1})
	if !errors.Is(err, dom.ErrUnreadableContent) {
		t.Errorf("Rasterize() error = %v, want ErrUnreadableContent", err)
	}
}

func TestPage_Rasterize_RenderTabImageFails_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if served.Swap(true) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	p, err := testBrowser.OpenHTML(ctx, `<div id="once"><img src="`+srv.URL+`/once.png"></div>`)
	if err != nil {
		t.Fatalf("OpenHTML() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	el, err := p.Query(ctx, "#once")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	_, err = p.Rasterize(ctx, el, dom.RasterRequest{Width: 50, Height: 50, Scale: 1})
	if !errors.Is(err, dom.ErrUnreadableContent) {
		t.Errorf("Rasterize() error = %v, want ErrUnreadableContent", err)
	}
}

func TestPage_ScrollRoundTrip_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := openTestPage(t)

	if err := p.ScrollTo(ctx, dom.Point{X: 0, Y: 0}); err != nil {
		t.Fatalf("ScrollTo() error = %v", err)
	}
	pt, err := p.ScrollOffset(ctx)
	if err != nil || pt != (dom.Point{}) {
		t.Errorf("ScrollOffset() = %+v, %v", pt, err)
	}
}

func TestBrowser_Attach_Integration(t *testing.T) {
	t.Parallel()
	p := openTestPage(t)

	attached, err := testBrowser.Attach(context.Background(), p.URL())
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := attached.Close(); err != nil {
		t.Fatalf("Close() on attached page error = %v", err)
	}
	// The attached page is not owned; the original must still respond.
	if _, err := p.Query(context.Background(), "#card"); err != nil {
		t.Errorf("page unusable after closing attached handle: %v", err)
	}
	if _, err := testBrowser.Attach(context.Background(), "no-such-page-xyz"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Attach(no match) error = %v, want ErrPageNotFound", err)
	}
}
