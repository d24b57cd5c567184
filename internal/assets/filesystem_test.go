package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeStyle creates {dir}/styles/{name}.css.
func writeStyle(t *testing.T, dir, name, css string) {
	t.Helper()
	stylesDir := filepath.Join(dir, "styles")
	if err := os.MkdirAll(stylesDir, 0o755); err != nil {
		t.Fatalf("creating styles dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stylesDir, name+".css"), []byte(css), 0o644); err != nil {
		t.Fatalf("writing style: %v", err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "valid directory", path: t.TempDir()},
		{name: "empty path", path: "", wantErr: ErrInvalidBasePath},
		{name: "missing directory", path: "/nonexistent/path/abc123xyz", wantErr: ErrInvalidBasePath},
		{name: "file instead of directory", path: file, wantErr: ErrInvalidBasePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loader, err := NewFilesystemLoader(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewFilesystemLoader() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || loader == nil {
				t.Fatalf("NewFilesystemLoader() = %v, %v", loader, err)
			}
		})
	}
}

func TestFilesystemLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeStyle(t, dir, "custom", "body { color: red; }")
	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	css, err := loader.LoadStyle("custom")
	if err != nil || css != "body { color: red; }" {
		t.Errorf("LoadStyle(custom) = %q, %v", css, err)
	}
	if _, err := loader.LoadStyle("missing"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(missing) error = %v, want ErrStyleNotFound", err)
	}
	if _, err := loader.LoadStyle("../custom"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStyle(../custom) error = %v, want ErrInvalidAssetName", err)
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.css")
	if err := os.WriteFile(secret, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(secret, filepath.Join(dir, "styles", "evil.css")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	if _, err := loader.LoadStyle("evil"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(evil) error = %v, want ErrPathTraversal", err)
	}
}
