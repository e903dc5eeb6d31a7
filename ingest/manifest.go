package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// manifestDir and reportDir are relative to the project root.
const (
	manifestDir = ".cullmate/manifests"
	reportDir   = ".cullmate/reports"
)

// manifestPaths computes the manifest and report paths for a run.
// File names use a local-time stamp; fields inside the manifest carry
// the same instant in UTC.
func manifestPaths(projectRoot string, startedAt time.Time) (manifestPath, reportPath string) {
	stamp := startedAt.Local().Format("20060102_150405")
	manifestPath = filepath.Join(projectRoot, manifestDir, stamp+"_ingest.json")
	reportPath = filepath.Join(projectRoot, reportDir, stamp+"_proof.html")
	return
}

// writeManifest serializes m as pretty-printed, owner-only-readable
// JSON at path, creating parent directories as needed. Called twice
// per run: once before the report exists, and again after so the
// manifest records its own path and the report's.
func writeManifest(m *IngestManifest, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrManifestWrite, err)
	}
	return nil
}
