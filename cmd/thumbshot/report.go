package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/assets"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/hints"
)

// attachedOutputBase names the output of an attached capture after the
// capture time, since the tab has no file name.
func attachedOutputBase(dir string, now time.Time) string {
	return filepath.Join(dir, "capture-"+now.UTC().Format("20060102-150405"))
}

// printOutcomes prints one line per document and a summary, and returns
// the number of failures.
func printOutcomes(outcomes []CaptureOutcome, common commonFlags, env *Environment) int {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", o.InputPath, o.Err)
			continue
		}
		if common.quiet {
			continue
		}
		if common.verbose && o.Result != nil {
			m := o.Result.Metadata
			fmt.Fprintf(env.Stdout, "%s -> %s (%dx%d %s, %s, %v)\n",
				o.InputPath, o.Files.Primary, m.Width, m.Height, m.Mode, m.FileSize, o.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", o.Files.Primary)
		}
	}

	if !common.quiet && len(outcomes) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(outcomes)-failed, failed)
	}
	return failed
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, thumbshot.ErrAttach):
		return hints.ForAttach()
	case errors.Is(err, thumbshot.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, thumbshot.ErrPageNotFound):
		return hints.ForPageNotFound()
	case errors.Is(err, thumbshot.ErrElementNotFound):
		return hints.ForElementNotFound(selectorOf(err))
	case errors.Is(err, thumbshot.ErrUnreadableContent):
		return hints.ForUnreadableContent()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(searchedPaths(err))
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// selectorOf extracts the quoted selector from an element lookup error.
func selectorOf(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, `"`); i >= 0 {
		if j := strings.LastIndex(msg, `"`); j > i {
			return msg[i : j+1]
		}
	}
	return "the selector"
}

// searchedPaths extracts the paths listed by a config lookup error.
func searchedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
