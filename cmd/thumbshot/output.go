package main

import (
	"errors"
	"fmt"

	thumbshot "github.com/alnah/go-thumbshot"
	"github.com/alnah/go-thumbshot/internal/config"
	"github.com/alnah/go-thumbshot/internal/fileutil"
	"github.com/alnah/go-thumbshot/internal/yamlutil"
)

// ErrWriteOutput indicates an output file could not be written.
var ErrWriteOutput = errors.New("failed to write output")

// writtenFiles lists the files of one capture. Empty fields were skipped.
type writtenFiles struct {
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback,omitempty"`
	Metadata string `yaml:"metadata,omitempty"`
}

// writeResult writes base.<ext>, the JPEG fallback as base.fallback.jpg
// when it differs from the primary, and the metadata as base.yaml.
func writeResult(base string, res *thumbshot.CaptureResult, out config.OutputConfig) (writtenFiles, error) {
	var files writtenFiles

	files.Primary = base + "." + res.Primary.Format.Extension()
	if err := fileutil.WriteFile(files.Primary, res.Primary.Data); err != nil {
		return files, fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	if !out.OmitFallback && len(res.Fallback.Data) > 0 && res.Fallback.Format != res.Primary.Format {
		files.Fallback = base + ".fallback." + res.Fallback.Format.Extension()
		if err := fileutil.WriteFile(files.Fallback, res.Fallback.Data); err != nil {
			return files, fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}

	if !out.OmitMetadata {
		data, err := yamlutil.Marshal(res)
		if err != nil {
			return files, fmt.Errorf("encoding metadata: %w", err)
		}
		files.Metadata = base + ".yaml"
		if err := fileutil.WriteFile(files.Metadata, data); err != nil {
			return files, fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
	}
	return files, nil
}
