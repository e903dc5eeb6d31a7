package ingest

import "github.com/tyreamer/cullmate-core/ingest/dupeindex"

// recordCrossRunIndex persists every status=copied entry from this
// run into the optional cross-run content index. Failures here are
// swallowed: nothing is logged and no error is returned, since the
// index is a convenience, never load-bearing for safe_to_format or
// any FileEntry invariant.
func recordCrossRunIndex(path, projectName string, entries []*FileEntry) {
	idx, err := dupeindex.Open(path)
	if err != nil {
		return
	}
	defer idx.Close()

	for _, e := range entries {
		if e.Status == StatusCopied {
			_ = idx.Record(e.Hash, projectName, e.DstRel)
		}
	}
}
