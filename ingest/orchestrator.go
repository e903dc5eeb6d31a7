package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// appVersion is reported in every manifest; set at build time in a
// real release via -ldflags, left as a constant here.
const appVersion = "0.1.0-dev"

// RunIngest is the ingest core's single entry point. It
// scans source, routes and copies every recognized file, verifies
// primary and (optionally) backup destinations, runs triage, and
// writes a manifest plus an HTML report. onProgress may be nil.
//
// A per-file failure never aborts the run; it is captured on that
// file's entry. A per-run failure (invalid source, unwritable project
// root, unwritable manifest) aborts and returns a non-nil error with
// no manifest.
//
// Cancelling ctx stops the run at the next phase boundary or file
// boundary. A cancelled run still writes a manifest with the state
// accumulated so far and returns it with a nil error; safe_to_format
// is always false in that manifest. Caller-imposed timeouts are
// enforced the same way, via ctx.
func RunIngest(ctx context.Context, params Params, onProgress ProgressFunc) (*IngestManifest, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(params.SourcePath)
	if err != nil || !info.IsDir() {
		return nil, ErrInvalidSource
	}

	em := newEmitter(onProgress)
	startedAt := time.Now().UTC()

	projectRoot := filepath.Join(params.DestProjectPath, params.ProjectName)
	if err := os.MkdirAll(projectRoot, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProjectRoot, err)
	}
	for _, dir := range scaffoldsFor(params.FolderTemplate) {
		if err := os.MkdirAll(filepath.Join(projectRoot, dir), 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProjectRoot, err)
		}
	}

	var backupRoot string
	if params.BackupDest != "" {
		backupRoot = filepath.Join(params.BackupDest, params.ProjectName)
		if err := os.MkdirAll(backupRoot, 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProjectRoot, err)
		}
		for _, dir := range scaffoldsFor(params.FolderTemplate) {
			if err := os.MkdirAll(filepath.Join(backupRoot, dir), 0o700); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrProjectRoot, err)
			}
		}
	}

	em.emit(EventIngestStart, EvIngestStart{SourcePath: params.SourcePath, ProjectRoot: projectRoot})

	scanned, err := scanSource(params.SourcePath, em)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	entries := make([]*FileEntry, len(scanned))
	dates := newDateResolver(startedAt)
	dedupe := newDedupeMap()

	cancelled := false

	var totalBytesCopied int64
	var bytesSavedSoFar int64
	var dupeCountSoFar int
	for i, sf := range scanned {
		if ctx.Err() != nil {
			entries = entries[:i]
			cancelled = true
			break
		}

		e := &FileEntry{SrcRel: sf.SrcRel, Bytes: sf.Bytes, MediaType: sf.MediaType}
		entries[i] = e

		var tokens TokenContext
		if params.FolderTemplate != nil {
			cam := extractCameraInfo(sf.AbsPath)
			tokens = buildTokenContext(sf, dates.captureDate(sf.AbsPath), cam, params.FolderTemplate, params.TemplateContext)
		}
		dstRel, routedBy := route(sf, tokens, params.FolderTemplate)
		e.DstRel = dstRel
		e.RoutedBy = routedBy

		if params.Dedupe {
			srcHash, hashErr := hashFile(sf.AbsPath, params.HashAlgo)
			if hashErr != nil {
				e.Status = StatusError
				e.Error = hashErr.Error()
				continue
			}
			if existingDst, ok := dedupe.lookup(srcHash); ok {
				e.Status = StatusSkippedDup
				e.Hash = srcHash
				e.DuplicateOf = existingDst
				bytesSavedSoFar += e.Bytes
				dupeCountSoFar++
				em.emit(EventDedupeHit, EvDedupeHit{
					RelPath:             e.SrcRel,
					DuplicateOf:         existingDst,
					BytesSavedTotal:     bytesSavedSoFar,
					DuplicateCountTotal: dupeCountSoFar,
				})
				continue
			}
		}

		dstPath := filepath.Join(projectRoot, e.DstRel)
		result := copyWithHash(sf.AbsPath, dstPath, params.HashAlgo, params.Overwrite)
		e.Status = result.Status
		switch result.Status {
		case StatusCopied:
			e.Hash = result.Hash
			e.Bytes = result.Bytes
			dedupe.record(result.Hash, e.DstRel)
		case StatusSkippedExists:
			// existing destination content is unknown without a read;
			// hash stays empty.
		case StatusError:
			e.Error = result.Err.Error()
		}

		totalBytesCopied += e.Bytes
		em.emit(EventCopyProgress, EvCopyProgress{
			Index: i, Total: len(entries), RelPath: e.SrcRel,
			BytesCopied: e.Bytes, TotalBytesCopied: totalBytesCopied,
		})
	}

	cancelled = cancelled || ctx.Err() != nil

	if !cancelled {
		verifyPrimary(ctx, entries, projectRoot, params.HashAlgo, params.VerifyMode, em)
		cancelled = ctx.Err() != nil
	}

	if !cancelled && params.XMPPatch != nil {
		writer := params.Sidecar
		if writer == nil {
			writer = NewDefaultSidecarWriter()
		}
		writeSidecars(ctx, entries, projectRoot, *params.XMPPatch, writer, em)
		cancelled = ctx.Err() != nil
	}

	if !cancelled && backupRoot != "" {
		em.emit(EventBackupStart, EvBackupStart{BackupRoot: backupRoot})
		runBackupLeg(ctx, entries, params.SourcePath, backupRoot, params.HashAlgo, params.Overwrite, em)
		if ctx.Err() == nil {
			verifyBackup(ctx, entries, backupRoot, params.HashAlgo, params.VerifyMode, em)
		}
		cancelled = ctx.Err() != nil
	}

	var triageSummary TriageSummary
	if !cancelled {
		triager := params.Triage
		if triager == nil {
			triager = NewDefaultTriager()
		}
		triageSummary = triager.Triage(ctx, entries, projectRoot, em.fn)
		cancelled = ctx.Err() != nil
	}

	if !cancelled && params.DedupeIndexPath != "" {
		recordCrossRunIndex(params.DedupeIndexPath, params.ProjectName, entries)
	}

	finishedAt := time.Now().UTC()
	totals := computeTotals(entries, triageSummary)

	manifest := &IngestManifest{
		ToolVersion:        ToolVersion,
		AppVersion:         appVersion,
		RunID:              uuid.NewString(),
		SourcePath:         params.SourcePath,
		PrimaryProjectRoot: projectRoot,
		BackupProjectRoot:  backupRoot,
		ProjectName:        params.ProjectName,
		HashAlgo:           string(params.HashAlgo),
		VerifyMode:         string(params.VerifyMode),
		StartedAt:          startedAt,
		FinishedAt:         finishedAt,
		Triage:             triageSummary,
		Totals:             totals,
		Files:              dereferenceEntries(entries),
	}
	if params.FolderTemplate != nil {
		manifest.TemplateID = params.FolderTemplate.ID
	}
	// A cancelled run can never assert safety: phases were skipped, so
	// the safety preconditions were never fully established.
	manifest.SafeToFormat = !cancelled && computeSafeToFormat(manifest, backupRoot != "")

	manifestPath, reportPath := manifestPaths(projectRoot, startedAt)
	if err := writeManifest(manifest, manifestPath); err != nil {
		return nil, err
	}

	if err := writeReport(manifest, reportPath); err != nil {
		// Report writing is best-effort; the manifest already on disk
		// remains the authoritative record.
		em.emit(EventReportGenerated, EvReportGenerated{ManifestPath: manifestPath, ReportPath: ""})
	} else {
		em.emit(EventReportGenerated, EvReportGenerated{ManifestPath: manifestPath, ReportPath: reportPath})
	}

	manifest.ManifestPath = manifestPath
	manifest.ReportPath = reportPath
	if err := writeManifest(manifest, manifestPath); err != nil {
		return nil, err
	}

	em.emit(EventDone, EvDone{
		SuccessCount: totals.SuccessCount,
		FailCount:    totals.FailCount,
		ElapsedMS:    finishedAt.Sub(startedAt).Milliseconds(),
		SafeToFormat: manifest.SafeToFormat,
	})

	return manifest, nil
}

func dereferenceEntries(entries []*FileEntry) []FileEntry {
	out := make([]FileEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out
}

// computeTotals folds the final entry list and triage summary into
// the manifest's Totals.
func computeTotals(entries []*FileEntry, triage TriageSummary) Totals {
	var t Totals
	t.FileCount = len(entries)

	for _, e := range entries {
		switch e.Status {
		case StatusCopied:
			t.SuccessCount++
			t.TotalBytes += e.Bytes
		case StatusSkippedExists:
			t.SkipCount++
		case StatusSkippedDup:
			t.DuplicateCount++
			t.BytesSaved += e.Bytes
		case StatusError:
			t.FailCount++
		}

		if e.Verified != nil {
			t.VerifiedCount++
			if *e.Verified {
				t.VerifiedOK++
			} else {
				t.VerifiedMismatch++
			}
		}

		switch e.BackupStatus {
		case BackupCopied:
			t.BackupSuccessCount++
		case BackupSkippedExists:
			t.BackupSkipCount++
		case BackupError:
			t.BackupFailCount++
		}

		if e.BackupVerified != nil {
			t.BackupVerifiedCount++
			if *e.BackupVerified {
				t.BackupVerifiedOK++
			} else {
				t.BackupVerifiedMismatch++
			}
		}

		if e.SidecarWritten != nil {
			if *e.SidecarWritten {
				t.XMPWrittenCount++
			} else {
				t.XMPFailedCount++
			}
		}
	}

	t.TriageUnreadableCount = triage.UnreadableCount
	t.TriageBlackFrameCount = triage.BlackFrameCount

	return t
}

// computeSafeToFormat decides the run's terminal boolean: a backup
// must exist, nothing may have failed or mismatched on either leg,
// both legs must account for the same number of files, and triage
// must have found every checked file readable.
func computeSafeToFormat(m *IngestManifest, backupConfigured bool) bool {
	t := m.Totals
	return backupConfigured &&
		t.FailCount == 0 &&
		t.BackupFailCount == 0 &&
		t.VerifiedMismatch == 0 &&
		t.BackupVerifiedMismatch == 0 &&
		(t.SuccessCount+t.SkipCount) == (t.BackupSuccessCount+t.BackupSkipCount) &&
		t.TriageUnreadableCount == 0
}
