package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestStyleResolver(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeStyle(t, dir, "default", "/* custom default */")
	writeStyle(t, dir, "brand", "/* brand */")

	resolver, err := NewStyleResolver(dir)
	if err != nil {
		t.Fatalf("NewStyleResolver() error = %v", err)
	}
	if !resolver.HasCustomLoader() {
		t.Fatal("HasCustomLoader() = false")
	}

	tests := []struct {
		name     string
		style    string
		contains string
		wantErr  error
	}{
		{name: "custom overrides embedded", style: "default", contains: "custom default"},
		{name: "custom only", style: "brand", contains: "brand"},
		{name: "falls back to embedded", style: "paper", contains: ".thumbshot-page"},
		{name: "unknown everywhere", style: "nope", wantErr: ErrStyleNotFound},
		{name: "invalid name does not fall back", style: "a.b", wantErr: ErrInvalidAssetName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			css, err := resolver.LoadStyle(tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil || !strings.Contains(css, tt.contains) {
				t.Errorf("LoadStyle(%q) = %q, %v; want it to contain %q", tt.style, css, err, tt.contains)
			}
		})
	}
}

func TestStyleResolver_EmbeddedOnly(t *testing.T) {
	t.Parallel()

	resolver, err := NewStyleResolver("")
	if err != nil {
		t.Fatalf("NewStyleResolver(\"\") error = %v", err)
	}
	if resolver.HasCustomLoader() {
		t.Error("HasCustomLoader() = true for empty path")
	}
	if _, err := resolver.LoadStyle("dark"); err != nil {
		t.Errorf("LoadStyle(dark) error = %v", err)
	}
	if _, err := NewStyleResolver("/nonexistent/abc123xyz"); !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("NewStyleResolver(missing) error = %v, want ErrInvalidBasePath", err)
	}
}
