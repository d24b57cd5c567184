package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/yamlutil"
)

// fakeResult returns a capture result with recognizable payloads.
func fakeResult(primary thumbshot.Format) *thumbshot.CaptureResult {
	return &thumbshot.CaptureResult{
		Primary:  thumbshot.EncodedImage{Format: primary, Data: []byte("primary-" + string(primary)), Width: 600, Height: 800},
		Fallback: thumbshot.EncodedImage{Format: thumbshot.FormatJPEG, Data: []byte("fallback"), Width: 600, Height: 800},
		Metadata: thumbshot.Metadata{
			ID: "cap-1", Width: 600, Height: 800, AspectRatio: "3:4",
			Format: primary, Requested: primary, Mode: "in-place", Magnification: 2,
			FileSize: "1KB", GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test temp file
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func TestWriteResult(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "invoice")
	files, err := writeResult(base, fakeResult(thumbshot.FormatWebP), config.OutputConfig{})
	if err != nil {
		t.Fatalf("writeResult() error = %v", err)
	}

	want := writtenFiles{Primary: base + ".webp", Fallback: base + ".fallback.jpg", Metadata: base + ".yaml"}
	if files != want {
		t.Errorf("files = %+v, want %+v", files, want)
	}
	if got := readFile(t, files.Primary); !bytes.Equal(got, []byte("primary-webp")) {
		t.Errorf("primary = %q", got)
	}
	if got := readFile(t, files.Fallback); !bytes.Equal(got, []byte("fallback")) {
		t.Errorf("fallback = %q", got)
	}

	var meta struct {
		Primary  map[string]any `yaml:"primary"`
		Metadata struct {
			ID          string `yaml:"id"`
			AspectRatio string `yaml:"aspect_ratio"`
			Mode        string `yaml:"mode"`
		} `yaml:"metadata"`
	}
	if err := yamlutil.Unmarshal(readFile(t, files.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not YAML: %v", err)
	}
	if meta.Metadata.ID != "cap-1" || meta.Metadata.AspectRatio != "3:4" || meta.Metadata.Mode != "in-place" {
		t.Errorf("metadata = %+v", meta.Metadata)
	}
	if _, ok := meta.Primary["data"]; ok {
		t.Error("metadata embeds image bytes")
	}
}

func TestWriteResult_Omissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		primary thumbshot.Format
		out     config.OutputConfig
		want    func(base string) writtenFiles
	}{
		{
			name:    "jpeg primary has no separate fallback",
			primary: thumbshot.FormatJPEG,
			want: func(b string) writtenFiles {
				return writtenFiles{Primary: b + ".jpg", Metadata: b + ".yaml"}
			},
		},
		{
			name:    "omit fallback and metadata",
			primary: thumbshot.FormatPNG,
			out:     config.OutputConfig{OmitFallback: true, OmitMetadata: true},
			want:    func(b string) writtenFiles { return writtenFiles{Primary: b + ".png"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			base := filepath.Join(dir, "x")
			files, err := writeResult(base, fakeResult(tt.primary), tt.out)
			if err != nil {
				t.Fatalf("writeResult() error = %v", err)
			}
			if want := tt.want(base); files != want {
				t.Errorf("files = %+v, want %+v", files, want)
			}
			written := 0
			for _, p := range []string{files.Primary, files.Fallback, files.Metadata} {
				if p != "" {
					written++
				}
			}
			if entries, _ := os.ReadDir(dir); len(entries) != written {
				t.Errorf("directory holds %d files, want %d", len(entries), written)
			}
		})
	}
}

func TestWriteResult_Unwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := writeResult(filepath.Join(blocker, "x"), fakeResult(thumbshot.FormatPNG), config.OutputConfig{})
	if !errors.Is(err, ErrWriteOutput) {
		t.Errorf("error = %v, want ErrWriteOutput", err)
	}
}
