package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/fileutil"
	"github.com/alnah/go-thumbshot/internal/yamlutil"
)

// ErrBatchInput indicates the batch input is not a single document.
var ErrBatchInput = errors.New("batch takes a single document")

// batchSummary is written as <base>.batch.yaml.
type batchSummary struct {
	Source      string       `yaml:"source"`
	Selector    string       `yaml:"selector"`
	GeneratedAt time.Time    `yaml:"generated_at"`
	Succeeded   int          `yaml:"succeeded"`
	Failed      int          `yaml:"failed"`
	Items       []batchEntry `yaml:"items"`
}

// batchEntry is one item of a batch summary.
type batchEntry struct {
	ID    string        `yaml:"id"`
	Files *writtenFiles `yaml:"files,omitempty"`
	Size  string        `yaml:"size,omitempty"`
	Error string        `yaml:"error,omitempty"`
}

// runBatchCmd captures every element matching the selector in one
// document, in sequence.
func runBatchCmd(ctx context.Context, args []string, f *captureFlags, env *Environment, logger *slog.Logger) error {
	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	opts, err := captureOptions(cfg)
	if err != nil {
		return err
	}

	browser := thumbshot.NewBrowser(browserOptions(cfg, logger)...)
	defer browser.Close()

	var (
		page *thumbshot.Page
		src  string
		base string
	)
	if attachMode(args, cfg) {
		if page, err = browser.Attach(ctx, f.engine.page); err != nil {
			return err
		}
		src = page.URL()
		base = attachedOutputBase(cfg.Output.DefaultDir, env.Now())
	} else {
		if src, err = batchInput(args, cfg); err != nil {
			return err
		}
		loader, err := newLoader(cfg)
		if err != nil {
			return err
		}
		doc, err := loader.Load(ctx, src)
		if err != nil {
			return err
		}
		if page, err = browser.OpenHTML(ctx, doc.HTML); err != nil {
			return err
		}
		defer func() { _ = page.Close() }()
		base = resolveOutputBase(src, cfg.Output.DefaultDir, "")
	}

	selector := cfg.Capture.SelectorOrDefault()
	nodes, err := page.QueryAll(ctx, selector)
	if err != nil {
		return err
	}
	els := make([]thumbshot.Element, len(nodes))
	for i, n := range nodes {
		els[i] = n
	}
	items, err := collectItems(ctx, els, cfg.Batch.IDAttributeOrDefault())
	if err != nil {
		return err
	}
	logger.Debug("starting batch", "source", src, "items", len(items))

	capt := thumbshot.New(capturerOptions(cfg, logger)...)
	results := capt.RunBatch(ctx, items, opts...)

	summary, err := writeBatch(base, results, cfg.Output)
	if err != nil {
		return err
	}
	summary.Source = src
	summary.Selector = selector
	summary.GeneratedAt = env.Now().UTC()
	if err := writeSummary(base, summary); err != nil {
		return err
	}

	printBatch(summary, f.common, env)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d item(s) failed: %w", summary.Failed, len(results), firstBatchError(results))
	}
	return nil
}

// batchInput returns the single document a batch reads.
func batchInput(args []string, cfg *config.Config) (string, error) {
	path, err := resolveInputPath(args, cfg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrBatchInput, path)
	}
	return path, nil
}

// collectItems names each element after its idAttr attribute, then its id.
// Unnamed elements get a generated ID from RunBatch.
func collectItems(ctx context.Context, els []thumbshot.Element, idAttr string) ([]thumbshot.BatchItem, error) {
	items := make([]thumbshot.BatchItem, len(els))
	for i, el := range els {
		items[i].Element = el
		for _, attr := range []string{idAttr, "id"} {
			v, ok, err := el.Attribute(ctx, attr)
			if err != nil {
				return nil, fmt.Errorf("reading %s of item %d: %w", attr, i, err)
			}
			if ok && v != "" {
				items[i].ID = v
				break
			}
		}
	}
	return items, nil
}

// writeBatch writes the files of every successful item as
// <base>-<id>.<ext> and returns the summary entries.
func writeBatch(base string, results []thumbshot.BatchResult, out config.OutputConfig) (batchSummary, error) {
	var summary batchSummary
	used := make(map[string]bool, len(results))

	for i, r := range results {
		entry := batchEntry{ID: r.ID}
		if r.Err != nil {
			summary.Failed++
			entry.Error = r.Err.Error()
			summary.Items = append(summary.Items, entry)
			continue
		}

		name := base + "-" + safeName(r.ID)
		if used[name] {
			name += "-" + strconv.Itoa(i+1)
		}
		used[name] = true

		files, err := writeResult(name, r.Result, out)
		if err != nil {
			return summary, err
		}
		summary.Succeeded++
		entry.Files = &files
		entry.Size = r.Result.Metadata.FileSize
		summary.Items = append(summary.Items, entry)
	}
	return summary, nil
}

// writeSummary writes the summary next to the item files.
func writeSummary(base string, summary batchSummary) error {
	data, err := yamlutil.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding batch summary: %w", err)
	}
	if err := fileutil.WriteFile(base+".batch.yaml", data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// printBatch prints one line per item and the totals.
func printBatch(s batchSummary, common commonFlags, env *Environment) {
	for _, e := range s.Items {
		if e.Error != "" {
			fmt.Fprintf(env.Stderr, "FAILED %s: %s\n", e.ID, e.Error)
			continue
		}
		switch {
		case common.quiet:
		case common.verbose:
			fmt.Fprintf(env.Stdout, "%s -> %s (%s)\n", e.ID, e.Files.Primary, e.Size)
		default:
			fmt.Fprintf(env.Stdout, "Created %s\n", e.Files.Primary)
		}
	}
	if !common.quiet {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", s.Succeeded, s.Failed)
	}
}

// firstBatchError returns the first item error.
func firstBatchError(results []thumbshot.BatchResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
