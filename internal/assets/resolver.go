package assets

import "errors"

// StyleResolver tries a custom directory first and falls back to the
// embedded styles when the custom directory lacks the style.
type StyleResolver struct {
	custom   StyleLoader
	embedded StyleLoader
}

// NewStyleResolver returns a resolver. An empty customBasePath uses the
// embedded styles only.
func NewStyleResolver(customBasePath string) (*StyleResolver, error) {
	r := &StyleResolver{embedded: NewEmbeddedLoader()}
	if customBasePath == "" {
		return r, nil
	}
	fsLoader, err := NewFilesystemLoader(customBasePath)
	if err != nil {
		return nil, err
	}
	r.custom = fsLoader
	return r, nil
}

// LoadStyle implements StyleLoader. Only a not-found error from the custom
// loader triggers the fallback; validation and I/O errors are returned.
func (r *StyleResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}
	css, err := r.custom.LoadStyle(name)
	if err == nil || !errors.Is(err, ErrStyleNotFound) {
		return css, err
	}
	return r.embedded.LoadStyle(name)
}

// HasCustomLoader reports whether a custom directory is configured.
func (r *StyleResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ StyleLoader = (*StyleResolver)(nil)
