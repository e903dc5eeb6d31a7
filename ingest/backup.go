package ingest

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
)

// backupWorkers bounds the backup leg's parallelism.
func backupWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// runBackupLeg mirrors every primary-copied (or already-present)
// entry into backupRoot. Work is farmed out to a bounded pool, but
// results are collected into an index-aligned slice and only then
// applied to entries and emitted in scan order, so progress stays
// monotone in file index even though the underlying I/O runs
// concurrently.
func runBackupLeg(ctx context.Context, entries []*FileEntry, sourcePath, backupRoot string, algo HashAlgo, overwrite bool, em *emitter) {
	type job struct {
		pos   int
		entry *FileEntry
	}

	var jobs []job
	for i, e := range entries {
		if e.Status == StatusCopied || e.Status == StatusSkippedExists {
			jobs = append(jobs, job{pos: i, entry: e})
		}
	}

	results := make([]copyResult, len(jobs))
	jobCh := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range jobCh {
			e := jobs[idx].entry
			srcPath := filepath.Join(sourcePath, e.SrcRel)
			dstPath := filepath.Join(backupRoot, e.DstRel)
			results[idx] = copyWithHash(srcPath, dstPath, algo, overwrite)
		}
	}

	n := backupWorkers()
	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}
	for idx := range jobs {
		if ctx.Err() != nil {
			break
		}
		jobCh <- idx
	}
	close(jobCh)
	wg.Wait()

	var totalBytesCopied int64
	for idx, j := range jobs {
		e := j.entry
		result := results[idx]
		if result.Status == "" {
			// job never dispatched (run was cancelled mid-phase)
			continue
		}
		switch result.Status {
		case StatusCopied:
			e.BackupStatus = BackupCopied
			e.BackupHash = result.Hash
		case StatusSkippedExists:
			e.BackupStatus = BackupSkippedExists
		case StatusError:
			e.BackupStatus = BackupError
			e.BackupError = result.Err.Error()
		}
		totalBytesCopied += result.Bytes
		em.emit(EventBackupCopy, EvCopyProgress{
			Index: j.pos, Total: len(entries), RelPath: e.SrcRel,
			BytesCopied: result.Bytes, TotalBytesCopied: totalBytesCopied,
		})
	}
}
