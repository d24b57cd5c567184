package main

import (
	"errors"
	"os"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/assets"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/source"
)

// Exit codes of the thumbshot CLI: 0=success, 1=general, 2=usage, then
// custom codes below 126.
const (
	ExitSuccess = 0 // Every capture succeeded
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, options or selector
	ExitIO      = 3 // Input missing, output not writable
	ExitBrowser = 4 // Chrome could not launch, load or render
)

// ErrUnknownCommand indicates an unrecognized subcommand.
var ErrUnknownCommand = errors.New("unknown command")

// exitCodeFor maps err to an exit code through errors.Is, so callers must
// wrap with %w.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, thumbshot.ErrBrowserConnect) ||
		errors.Is(err, thumbshot.ErrPageCreate) ||
		errors.Is(err, thumbshot.ErrPageLoad) ||
		errors.Is(err, thumbshot.ErrPageNotFound) ||
		errors.Is(err, thumbshot.ErrRasterization) ||
		errors.Is(err, ErrEngineInit) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, source.ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, thumbshot.ErrInvalidOptions) ||
		errors.Is(err, thumbshot.ErrElementNotFound) ||
		errors.Is(err, source.ErrUnsupportedInput) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrBatchInput) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	return ExitGeneral
}
