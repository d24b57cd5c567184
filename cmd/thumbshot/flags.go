package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// sizeFlags holds the requested output geometry.
type sizeFlags struct {
	preset        string
	width         int
	height        int
	nativeWidth   int
	nativeHeight  int
	magnification float64
}

// lookFlags holds encoding and presentation flags.
type lookFlags struct {
	format     string
	quality    float64
	background string
	padding    string
	glass      bool
	shadows    bool
	reflection bool
}

// engineFlags holds browser flags.
type engineFlags struct {
	attach  string // DevTools URL of a running browser
	page    string // URL substring selecting the attached tab
	timeout string
	settle  string
}

// outputFlags holds output file flags.
type outputFlags struct {
	dir        string
	noMetadata bool
	noFallback bool
}

// captureFlags holds all flags of the capture and batch commands.
type captureFlags struct {
	common   commonFlags
	selector string
	workers  int
	isolate  bool
	wrap     bool
	style    string
	size     sizeFlags
	look     lookFlags
	engine   engineFlags
	output   outputFlags

	// batch only
	pacing string
	idAttr string
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and timings")
}

func addSizeFlags(fs *flag.FlagSet, f *sizeFlags) {
	fs.StringVar(&f.preset, "preset", "", "size preset: thumbnail, full")
	fs.IntVar(&f.width, "width", 0, "output width in CSS pixels")
	fs.IntVar(&f.height, "height", 0, "output height in CSS pixels")
	fs.IntVar(&f.nativeWidth, "native-width", 0, "native template width")
	fs.IntVar(&f.nativeHeight, "native-height", 0, "native template height")
	fs.Float64VarP(&f.magnification, "magnification", "m", 0, "output pixels per CSS pixel (0-8)")
}

func addLookFlags(fs *flag.FlagSet, f *lookFlags) {
	fs.StringVarP(&f.format, "format", "f", "", "image format: webp, jpeg, png")
	fs.Float64Var(&f.quality, "quality", 0, "lossy quality (0.0-1.0)")
	fs.StringVar(&f.background, "background", "", "background color")
	fs.StringVar(&f.padding, "padding", "", "CSS padding around the element")
	fs.BoolVar(&f.glass, "glass", false, "glass panel look")
	fs.BoolVar(&f.shadows, "shadows", false, "soft drop shadow")
	fs.BoolVar(&f.reflection, "reflection", false, "mirrored reflection")
}

func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVar(&f.attach, "attach", "", "DevTools URL of a running browser")
	fs.StringVar(&f.page, "page", "", "URL substring of the tab to capture (with --attach)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g. 30s)")
	fs.StringVar(&f.settle, "settle", "", "delay between staging and rendering (e.g. 200ms)")
}

func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "output directory")
	fs.BoolVar(&f.noMetadata, "no-metadata", false, "skip the metadata file")
	fs.BoolVar(&f.noFallback, "no-fallback", false, "skip the JPEG fallback file")
}

// newCaptureFlagSet registers the flags of the capture or batch command.
// Completion scripts are generated from the same set.
func newCaptureFlagSet(cmd string) (*flag.FlagSet, *captureFlags) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &captureFlags{}

	fs.StringVarP(&f.selector, "selector", "s", "", "CSS selector of the element")
	fs.BoolVar(&f.isolate, "isolate", false, "capture an off-screen clone")
	fs.BoolVar(&f.wrap, "wrap", false, "wrap the element while capturing")
	fs.StringVar(&f.style, "style", "", "style for Markdown input")
	if cmd == cmdBatch {
		fs.StringVar(&f.pacing, "pacing", "", "delay between items (e.g. 100ms)")
		fs.StringVar(&f.idAttr, "id-attr", "", "attribute naming each item (default data-id)")
	} else {
		fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	}

	addCommonFlags(fs, &f.common)
	addSizeFlags(fs, &f.size)
	addLookFlags(fs, &f.look)
	addEngineFlags(fs, &f.engine)
	addOutputFlags(fs, &f.output)
	return fs, f
}

// parseCaptureFlags parses flags of the capture or batch command and
// returns positional args. Usage goes to usage on -h or a parse error.
func parseCaptureFlags(cmd string, args []string, usage io.Writer) (*captureFlags, []string, error) {
	fs, f := newCaptureFlagSet(cmd)
	fs.Usage = func() { printCommandUsage(usage, cmd) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
