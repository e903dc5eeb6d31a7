package ingest

import (
	"context"
	"path/filepath"
	"sort"
)

// verifyProgressInterval caps how many files may pass between
// verify.progress events.
const verifyProgressInterval = 10

// sentinelCap bounds the sentinel sample size; at or below this the
// entire copied set is verified instead.
const sentinelCap = 75

// sentinelBand is the size of each of the three sentinel slices
// (first N, last N, largest N).
const sentinelBand = 25

// selectSentinel returns the deterministic sentinel sample: the first
// 25 and last 25 entries in scan order plus the 25 largest by size,
// de-duplicated. No randomness, so re-runs verify the same set.
// entries must already be in scan (ascending src_rel) order;
// selectSentinel does not mutate or reorder its input.
func selectSentinel(entries []*FileEntry) []*FileEntry {
	if len(entries) <= sentinelCap {
		return entries
	}

	seen := make(map[string]bool, sentinelCap)
	var out []*FileEntry

	add := func(e *FileEntry) {
		if !seen[e.SrcRel] {
			seen[e.SrcRel] = true
			out = append(out, e)
		}
	}

	for i := 0; i < sentinelBand && i < len(entries); i++ {
		add(entries[i])
	}
	for i := len(entries) - sentinelBand; i < len(entries); i++ {
		if i < 0 {
			continue
		}
		add(entries[i])
	}

	bySize := make([]*FileEntry, len(entries))
	copy(bySize, entries)
	sort.SliceStable(bySize, func(i, j int) bool {
		return bySize[i].Bytes > bySize[j].Bytes
	})
	for i := 0; i < sentinelBand && i < len(bySize); i++ {
		add(bySize[i])
	}

	return out
}

// verifyLeg rehashes the selected entries' destination files under
// root and writes the result through the supplied field accessors,
// shared between the primary and backup legs. eligible
// filters which entries this leg applies to (status=copied for
// primary, backup_status=copied for backup).
func verifyLeg(ctx context.Context, entries []*FileEntry, root string, algo HashAlgo, mode VerifyMode, em *emitter, evType EventType, eligible func(*FileEntry) bool, srcHash func(*FileEntry) string, setDestHash func(*FileEntry, string), setVerified func(*FileEntry, *bool), setErr func(*FileEntry, string)) {
	if mode == VerifyNone {
		return
	}

	var candidates []*FileEntry
	for _, e := range entries {
		if eligible(e) {
			candidates = append(candidates, e)
		}
	}

	var selected []*FileEntry
	switch mode {
	case VerifyFull:
		selected = candidates
	case VerifySentinel:
		selected = selectSentinel(candidates)
	}

	total := len(selected)
	for i, e := range selected {
		if ctx.Err() != nil {
			return
		}
		destPath := filepath.Join(root, e.DstRel)
		digest, err := hashFile(destPath, algo)
		if err != nil {
			ok := false
			setVerified(e, &ok)
			setErr(e, err.Error())
		} else {
			setDestHash(e, digest)
			ok := digest == srcHash(e)
			setVerified(e, &ok)
		}

		if (i+1)%verifyProgressInterval == 0 || i == total-1 {
			em.emit(evType, EvVerifyProgress{Mode: mode, VerifiedCount: i + 1, VerifiedTotal: total})
		}
	}
}

// verifyPrimary verifies copied entries against the primary project
// root, writing hash_dest/verified.
func verifyPrimary(ctx context.Context, entries []*FileEntry, projectRoot string, algo HashAlgo, mode VerifyMode, em *emitter) {
	verifyLeg(ctx, entries, projectRoot, algo, mode, em, EventVerifyProgress,
		func(e *FileEntry) bool { return e.Status == StatusCopied },
		func(e *FileEntry) string { return e.Hash },
		func(e *FileEntry, h string) { e.HashDest = h },
		func(e *FileEntry, v *bool) { e.Verified = v },
		func(e *FileEntry, msg string) { e.Error = appendDetail(e.Error, msg) },
	)
}

// verifyBackup verifies entries copied to the backup leg against the
// backup project root, writing backup_hash_dest/backup_verified.
func verifyBackup(ctx context.Context, entries []*FileEntry, backupRoot string, algo HashAlgo, mode VerifyMode, em *emitter) {
	verifyLeg(ctx, entries, backupRoot, algo, mode, em, EventBackupVerify,
		func(e *FileEntry) bool { return e.BackupStatus == BackupCopied },
		func(e *FileEntry) string { return e.BackupHash },
		func(e *FileEntry, h string) { e.BackupHashDest = h },
		func(e *FileEntry, v *bool) { e.BackupVerified = v },
		func(e *FileEntry, msg string) { e.BackupError = appendDetail(e.BackupError, msg) },
	)
}

func appendDetail(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}
