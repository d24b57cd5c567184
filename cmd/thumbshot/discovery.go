package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/source"
)

// Sentinel errors for input discovery.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrInvalidExtension   = errors.New("file must be .html, .htm, .md or .markdown")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// Job is one document to capture. OutputBase is the output path without
// extension; each written file appends its own.
type Job struct {
	InputPath  string
	OutputBase string
}

// resolveInputPath returns the positional input or the configured default.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// discoverFiles finds every supported document under inputPath.
func discoverFiles(inputPath, outputDir string) ([]Job, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !source.Supported(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []Job{{InputPath: inputPath, OutputBase: resolveOutputBase(inputPath, outputDir, "")}}, nil
	}

	var jobs []Job
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !source.Supported(path) {
			return nil
		}
		jobs = append(jobs, Job{InputPath: path, OutputBase: resolveOutputBase(path, outputDir, inputPath)})
		return nil
	})
	return jobs, err
}

// resolveOutputBase places outputs next to the input, or under outputDir
// mirroring the layout below baseInputDir.
func resolveOutputBase(inputPath, outputDir, baseInputDir string) string {
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}
	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, filepath.Dir(rel), name)
		}
	}
	return filepath.Join(outputDir, name)
}

// validateWorkers checks the worker count bounds. Zero means auto.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > thumbshot.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, thumbshot.MaxPoolSize)
	}
	return nil
}

// safeName reduces an item ID to characters safe in a file name.
func safeName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), ".-")
	if name == "" {
		return "item"
	}
	return name
}
