package ingest

import "errors"

// Fatal, per-run errors. A failure isolated to one file never
// produces one of these; it is captured on the FileEntry instead.
var (
	// ErrInvalidSource is returned when the source path is missing or
	// not a directory.
	ErrInvalidSource = errors.New("cullmate: invalid source: missing or not a directory")

	// ErrInvalidParams is returned when a Params field fails validation
	// (project name with a separator, unknown verify mode, unknown
	// hash algorithm).
	ErrInvalidParams = errors.New("cullmate: invalid params")

	// ErrProjectRoot is returned when the project root cannot be
	// created on disk.
	ErrProjectRoot = errors.New("cullmate: could not create project root")

	// ErrManifestWrite is returned when the manifest file itself
	// cannot be written. Report-write failures are best-effort and do
	// not produce this error.
	ErrManifestWrite = errors.New("cullmate: could not write manifest")
)

// InvalidAlgorithm is returned for an unrecognized hash algorithm
// name.
type InvalidAlgorithm struct {
	Algo string
}

func (e *InvalidAlgorithm) Error() string {
	return "cullmate: invalid hash algorithm: " + e.Algo
}
