// Package ingest implements the cullmate ingest core: scanning a source
// directory, routing files into a project layout, copying them with a
// streaming hash, verifying primary and backup destinations, triaging
// destination integrity, and emitting a manifest and HTML report.
package ingest

import "time"

// MediaType classifies a scanned file by its extension.
type MediaType string

const (
	MediaRAW   MediaType = "RAW"
	MediaPhoto MediaType = "PHOTO"
	MediaVideo MediaType = "VIDEO"
)

// Status is the terminal disposition of a FileEntry's primary leg.
type Status string

const (
	StatusCopied        Status = "copied"
	StatusSkippedExists Status = "skipped_exists"
	StatusSkippedDup    Status = "skipped_duplicate"
	StatusError         Status = "error"
)

// BackupStatus mirrors Status for the backup leg; it additionally allows
// the empty string for entries that never attempted a backup leg.
type BackupStatus string

const (
	BackupCopied        BackupStatus = "copied"
	BackupSkippedExists BackupStatus = "skipped_exists"
	BackupError         BackupStatus = "error"
)

// TriageKind enumerates the stable triage flag kinds.
type TriageKind string

const (
	TriageUnreadable TriageKind = "unreadable"
	TriageBlackFrame TriageKind = "black_frame"
)

// TriageFlag is one integrity observation attached to a FileEntry.
type TriageFlag struct {
	Kind       TriageKind `json:"kind"`
	Reason     string     `json:"reason"`
	Confidence float64    `json:"confidence"`
	Metric     *int       `json:"metric,omitempty"`
}

// ScannedFile is one source file discovered by the scanner. It is
// consumed immediately by the orchestrator and never serialized.
type ScannedFile struct {
	SrcRel    string    // source-relative path, forward-slash normalized
	AbsPath   string    // absolute path on disk
	Bytes     int64     // size in bytes
	MediaType MediaType // inferred category
}

// FileEntry is the authoritative per-file record, mutated across
// phases and finally serialized into the manifest. The copy pass sets
// Hash and Status, verification sets HashDest and Verified, the
// backup leg fills the Backup* mirror fields, and triage appends
// TriageFlags.
type FileEntry struct {
	SrcRel      string    `json:"src_rel"`
	DstRel      string    `json:"dst_rel"`
	Bytes       int64     `json:"bytes"`
	Hash        string    `json:"hash"`
	HashDest    string    `json:"hash_dest,omitempty"`
	Status      Status    `json:"status"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	MediaType   MediaType `json:"media_type"`
	RoutedBy    string    `json:"routed_by"`

	// Verified is a tri-state: nil means "not checked".
	Verified *bool `json:"verified,omitempty"`

	BackupStatus   BackupStatus `json:"backup_status,omitempty"`
	BackupHash     string       `json:"backup_hash,omitempty"`
	BackupHashDest string       `json:"backup_hash_dest,omitempty"`
	BackupVerified *bool        `json:"backup_verified,omitempty"`
	BackupError    string       `json:"backup_error,omitempty"`

	SidecarWritten *bool  `json:"sidecar_written,omitempty"`
	SidecarPath    string `json:"sidecar_path,omitempty"`
	SidecarError   string `json:"sidecar_error,omitempty"`

	TriageFlags []TriageFlag `json:"triage_flags,omitempty"`

	Error string `json:"error,omitempty"`
}

// Totals groups the manifest's accounting counters.
type Totals struct {
	FileCount      int   `json:"file_count"`
	SuccessCount   int   `json:"success_count"`
	FailCount      int   `json:"fail_count"`
	SkipCount      int   `json:"skip_count"`
	DuplicateCount int   `json:"duplicate_count"`
	BytesSaved     int64 `json:"bytes_saved"`
	TotalBytes     int64 `json:"total_bytes"`

	VerifiedCount    int `json:"verified_count"`
	VerifiedOK       int `json:"verified_ok"`
	VerifiedMismatch int `json:"verified_mismatch"`

	BackupSuccessCount int `json:"backup_success_count"`
	BackupFailCount    int `json:"backup_fail_count"`
	// BackupSkipCount tracks backup-leg skipped_exists entries, so the
	// safe_to_format balance check can account for re-runs against an
	// already-populated backup.
	BackupSkipCount int `json:"backup_skip_count"`

	BackupVerifiedCount    int `json:"backup_verified_count"`
	BackupVerifiedOK       int `json:"backup_verified_ok"`
	BackupVerifiedMismatch int `json:"backup_verified_mismatch"`

	XMPWrittenCount int `json:"xmp_written_count"`
	XMPFailedCount  int `json:"xmp_failed_count"`

	TriageUnreadableCount int `json:"triage_unreadable_count"`
	TriageBlackFrameCount int `json:"triage_black_frame_count"`
}

// TriageSummary is the aggregate result handed back from the triage
// collaborator.
type TriageSummary struct {
	FileCount       int      `json:"file_count"`
	UnreadableCount int      `json:"unreadable_count"`
	BlackFrameCount int      `json:"black_frame_count"`
	FlaggedFiles    []string `json:"flagged_files"`
}

// IngestManifest is the per-run record written to disk.
type IngestManifest struct {
	ToolVersion int    `json:"tool_version"`
	AppVersion  string `json:"app_version"`
	RunID       string `json:"run_id"`

	SourcePath         string `json:"source_path"`
	PrimaryProjectRoot string `json:"primary_project_root"`
	BackupProjectRoot  string `json:"backup_project_root,omitempty"`
	ProjectName        string `json:"project_name"`

	HashAlgo   string `json:"hash_algo"`
	VerifyMode string `json:"verify_mode"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	TemplateID string `json:"template_id,omitempty"`

	SafeToFormat bool          `json:"safe_to_format"`
	Triage       TriageSummary `json:"triage"`
	Totals       Totals        `json:"totals"`

	Files []FileEntry `json:"files"`

	ManifestPath string `json:"manifest_path,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`
}

// ToolVersion is the current integer schema version for IngestManifest.
const ToolVersion = 1
