package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/assets"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/source"
)

// ErrEngineInit indicates a worker could not get a browser.
var ErrEngineInit = errors.New("failed to initialize capture engine")

// Shooter captures the element matching a selector in an HTML document.
type Shooter interface {
	Shoot(ctx context.Context, html, selector string, opts ...thumbshot.CaptureOption) (*thumbshot.CaptureResult, error)
}

// Pool abstracts the browser pool for testability.
type Pool interface {
	Acquire() Shooter
	Release(Shooter)
	Size() int
}

// CaptureOutcome holds the outcome of one document.
type CaptureOutcome struct {
	InputPath string
	Files     writtenFiles
	Result    *thumbshot.CaptureResult
	Err       error
	Duration  time.Duration
}

// captureParams groups what every job of a run shares.
type captureParams struct {
	loader   *source.Loader
	selector string
	opts     []thumbshot.CaptureOption
	output   config.OutputConfig
}

// runCapture orchestrates the capture command.
func runCapture(ctx context.Context, args []string, f *captureFlags, env *Environment, logger *slog.Logger) error {
	if err := validateWorkers(f.workers); err != nil {
		return err
	}
	cfg, err := loadSettings(f, env)
	if err != nil {
		return err
	}
	opts, err := captureOptions(cfg)
	if err != nil {
		return err
	}

	if attachMode(args, cfg) {
		return runAttached(ctx, f, cfg, opts, env, logger)
	}

	inputPath, err := resolveInputPath(args, cfg)
	if err != nil {
		return err
	}
	jobs, err := discoverFiles(inputPath, cfg.Output.DefaultDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no HTML or Markdown files in %s", ErrNoInput, inputPath)
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	workers := f.workers
	if workers == 0 {
		workers = loadEnvConfig(env.Getenv).Workers
	}
	size := min(thumbshot.ResolvePoolSize(workers), len(jobs))
	logger.Debug("starting capture", "documents", len(jobs), "browsers", size)

	pool := newBrowserPool(size, cfg, logger)
	defer pool.Close()

	params := &captureParams{
		loader:   loader,
		selector: cfg.Capture.SelectorOrDefault(),
		opts:     opts,
		output:   cfg.Output,
	}
	outcomes := captureFiles(ctx, pool, jobs, params)

	if failed := printOutcomes(outcomes, f.common, env); failed > 0 {
		return fmt.Errorf("%d capture(s) failed: %w", failed, firstError(outcomes))
	}
	return nil
}

// attachMode reports whether to capture from an open tab of a running
// browser instead of loading files.
func attachMode(args []string, cfg *config.Config) bool {
	return cfg.Engine.BrowserURL != "" && len(args) == 0 && cfg.Input.DefaultDir == ""
}

// newLoader builds the document loader with the configured style.
func newLoader(cfg *config.Config) (*source.Loader, error) {
	styles, err := assets.NewStyleResolver(cfg.Style.BasePath)
	if err != nil {
		return nil, err
	}
	return source.NewLoader(source.WithStyles(styles), source.WithStyle(cfg.Style.Name)), nil
}

// captureFiles processes jobs concurrently, one worker per pooled browser.
// Results keep the order of jobs.
func captureFiles(ctx context.Context, pool Pool, jobs []Job, params *captureParams) []CaptureOutcome {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))
	outcomes := make([]CaptureOutcome, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			shooter := pool.Acquire()
			if shooter == nil {
				for idx := range queue {
					outcomes[idx] = CaptureOutcome{InputPath: jobs[idx].InputPath, Err: ErrEngineInit}
				}
				return
			}
			defer pool.Release(shooter)

			for idx := range queue {
				if ctx.Err() != nil {
					outcomes[idx] = CaptureOutcome{InputPath: jobs[idx].InputPath, Err: ctx.Err()}
					continue
				}
				outcomes[idx] = captureFile(ctx, shooter, jobs[idx], params)
			}
		})
	}
	wg.Wait()
	return outcomes
}

// captureFile loads, captures and writes a single document.
func captureFile(ctx context.Context, shooter Shooter, job Job, params *captureParams) CaptureOutcome {
	start := time.Now()
	out := CaptureOutcome{InputPath: job.InputPath}
	defer func() { out.Duration = time.Since(start) }()

	doc, err := params.loader.Load(ctx, job.InputPath)
	if err != nil {
		out.Err = err
		return out
	}

	res, err := shooter.Shoot(ctx, doc.HTML, params.selector, params.opts...)
	if err != nil {
		out.Err = err
		return out
	}
	out.Result = res

	out.Files, out.Err = writeResult(job.OutputBase, res, params.output)
	return out
}

// runAttached captures the selector in an already-open tab, the live
// editor case.
func runAttached(ctx context.Context, f *captureFlags, cfg *config.Config, opts []thumbshot.CaptureOption, env *Environment, logger *slog.Logger) error {
	browser := thumbshot.NewBrowser(browserOptions(cfg, logger)...)
	defer browser.Close()

	page, err := browser.Attach(ctx, f.engine.page)
	if err != nil {
		return err
	}
	el, err := page.Query(ctx, cfg.Capture.SelectorOrDefault())
	if err != nil {
		return err
	}

	start := time.Now()
	capt := thumbshot.New(capturerOptions(cfg, logger)...)
	res, err := capt.Generate(ctx, el, opts...)
	if err != nil {
		return err
	}

	base := attachedOutputBase(cfg.Output.DefaultDir, env.Now())
	files, err := writeResult(base, res, cfg.Output)
	outcome := CaptureOutcome{InputPath: page.URL(), Files: files, Result: res, Err: err, Duration: time.Since(start)}
	if printOutcomes([]CaptureOutcome{outcome}, f.common, env) > 0 {
		return err
	}
	return nil
}

// firstError returns the first failure, for exit code mapping.
func firstError(outcomes []CaptureOutcome) error {
	for _, o := range outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}
