package ingest

import (
	"time"

	"github.com/tyreamer/cullmate-core/ingest/metadata"
)

// dateResolver wraps the metadata extractor registry so it is built
// once per run rather than once per file.
type dateResolver struct {
	registry   *metadata.ExtractorRegistry
	importDate time.Time
}

func newDateResolver(importDate time.Time) *dateResolver {
	return &dateResolver{
		registry:   metadata.NewExtractorRegistry(),
		importDate: importDate,
	}
}

// captureDate returns the best available capture date for absPath,
// falling back to the run's import date when no extractor can
// establish one. Low-confidence results are filesystem mtimes, which
// say when the file was last written, not when it was captured; they
// are treated as no capture date so the import-date fallback applies.
func (d *dateResolver) captureDate(absPath string) time.Time {
	result := d.registry.ExtractBestDate(absPath)
	if result.Confidence <= metadata.ConfidenceLow || result.Date.IsZero() {
		return d.importDate
	}
	return result.Date
}
