package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("<p>x</p>"), 0o600); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input scanning
// ---------------------------------------------------------------------------

func TestDiscoverFiles_Directory(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	touch(t, filepath.Join(in, "a.html"))
	touch(t, filepath.Join(in, "notes.md"))
	touch(t, filepath.Join(in, "sub", "b.HTM"))
	touch(t, filepath.Join(in, "skip.txt"))
	touch(t, filepath.Join(in, "logo.png"))

	jobs, err := discoverFiles(in, "/out")
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}

	var got []string
	for _, j := range jobs {
		got = append(got, j.OutputBase)
	}
	slices.Sort(got)
	want := []string{
		filepath.Join("/out", "a"),
		filepath.Join("/out", "notes"),
		filepath.Join("/out", "sub", "b"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("output bases = %v, want %v", got, want)
	}
}

func TestDiscoverFiles_SingleFile(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	page := filepath.Join(in, "page.markdown")
	touch(t, page)

	jobs, err := discoverFiles(page, "")
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].InputPath != page || jobs[0].OutputBase != filepath.Join(in, "page") {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestDiscoverFiles_Errors(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	txt := filepath.Join(in, "readme.txt")
	touch(t, txt)

	if _, err := discoverFiles(txt, ""); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("text file error = %v, want ErrInvalidExtension", err)
	}
	if _, err := discoverFiles(filepath.Join(in, "missing.html"), ""); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestResolveOutputBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, input, outDir, baseDir, want string
	}{
		{"next to input", filepath.Join("docs", "a.html"), "", "", filepath.Join("docs", "a")},
		{"flat output dir", filepath.Join("docs", "a.md"), "out", "", filepath.Join("out", "a")},
		{"mirrors layout", filepath.Join("docs", "x", "a.md"), "out", "docs", filepath.Join("out", "x", "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolveOutputBase(tt.input, tt.outDir, tt.baseDir); got != tt.want {
				t.Errorf("resolveOutputBase() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveInputPath(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if _, err := resolveInputPath(nil, cfg); !errors.Is(err, ErrNoInput) {
		t.Errorf("no input error = %v, want ErrNoInput", err)
	}
	cfg.Input.DefaultDir = "templates"
	if got, _ := resolveInputPath(nil, cfg); got != "templates" {
		t.Errorf("default dir = %q, want templates", got)
	}
	if got, _ := resolveInputPath([]string{"a.html"}, cfg); got != "a.html" {
		t.Errorf("positional = %q, want a.html", got)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, thumbshot.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) error = %v", n, err)
		}
	}
	for _, n := range []int{-1, thumbshot.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"invoice-2024", "invoice-2024"},
		{"a/b\\c", "a-b-c"},
		{"../etc", "etc"},
		{"Résumé v2", "R-sum--v2"},
		{"", "item"},
		{"...", "item"},
	}
	for _, tt := range tests {
		if got := safeName(tt.in); got != tt.want {
			t.Errorf("safeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
