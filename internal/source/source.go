package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-thumbshot/internal/assets"
)

// Sentinel errors for document loading.
var (
	ErrUnsupportedInput = errors.New("unsupported input file")
	ErrReadInput        = errors.New("failed to read input")
)

// Extensions accepted by Load, lower case.
var Extensions = []string{".html", ".htm", ".md", ".markdown"}

// Document is a page ready to be opened in the browser.
type Document struct {
	// Name is the file name without extension, used for output files.
	Name string

	// Path is the absolute source path.
	Path string

	// HTML is the complete document markup.
	HTML string
}

// Loader turns input files into documents.
type Loader struct {
	markdown *Markdown
	styles   assets.StyleLoader
	style    string
}

// Option configures a Loader.
type Option func(*Loader)

// WithStyles sets where styles are looked up.
func WithStyles(l assets.StyleLoader) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.styles = l
		}
	}
}

// WithStyle selects the style applied to Markdown documents.
func WithStyle(name string) Option {
	return func(ld *Loader) {
		if name != "" {
			ld.style = name
		}
	}
}

// NewLoader returns a Loader using the embedded default style.
func NewLoader(opts ...Option) *Loader {
	ld := &Loader{
		markdown: NewMarkdown(),
		styles:   assets.NewEmbeddedLoader(),
		style:    assets.DefaultStyleName,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Supported reports whether path has an extension Load accepts.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads path and returns the document to open.
func (ld *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	raw, err := os.ReadFile(abs) // #nosec G304 -- user-provided input file
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	name := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	doc, err := ld.Build(ctx, name, filepath.Ext(abs), string(raw))
	if err != nil {
		return nil, err
	}

	doc, err = RewriteRelativePaths(doc, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("rewriting paths in %s: %w", path, err)
	}
	return &Document{Name: name, Path: abs, HTML: doc}, nil
}

// Build renders content according to ext. HTML is returned unchanged;
// Markdown is rendered and styled.
func (ld *Loader) Build(ctx context.Context, title, ext, content string) (string, error) {
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return content, nil
	case ".md", ".markdown":
		doc, err := ld.markdown.Render(ctx, title, content)
		if err != nil {
			return "", err
		}
		css, err := ld.styles.LoadStyle(ld.style)
		if err != nil {
			return "", err
		}
		return InjectCSS(doc, css), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, ext)
	}
}
