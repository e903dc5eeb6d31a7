package ingest

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/nf/cr2"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Triager inspects copied destination files after the copy and
// verify passes, reporting which ones the decoder could not read
// (and, optionally, which look like all-black frames). Only
// unreadable flags influence safe_to_format. onProgress may be nil;
// implementations should stop early when ctx is cancelled.
type Triager interface {
	Triage(ctx context.Context, entries []*FileEntry, projectRoot string, onProgress ProgressFunc) TriageSummary
}

// decodableExtensions lists the still-image formats the default
// triager attempts to decode. Other RAW formats and video containers
// have no decoder in this stack, so they are left unflagged rather
// than guessed at.
var decodableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".cr2":  true,
}

// imageDecodeTriager is the default Triager: it attempts to decode
// each eligible destination file with the standard image package
// (plus the blank-imported tiff/webp/cr2 format registrations) and
// flags decode failures as unreadable.
type imageDecodeTriager struct{}

// NewDefaultTriager returns the triager RunIngest uses when Params
// leaves Triage nil.
func NewDefaultTriager() Triager {
	return imageDecodeTriager{}
}

func (imageDecodeTriager) Triage(ctx context.Context, entries []*FileEntry, projectRoot string, onProgress ProgressFunc) TriageSummary {
	em := newEmitter(onProgress)
	summary := TriageSummary{}

	var eligible []*FileEntry
	for _, e := range entries {
		if e.Status != StatusCopied {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.DstRel))
		if decodableExtensions[ext] {
			eligible = append(eligible, e)
		}
	}

	total := len(eligible)
	for i, e := range eligible {
		if ctx.Err() != nil {
			break
		}
		summary.FileCount++
		path := filepath.Join(projectRoot, e.DstRel)

		f, err := os.Open(path)
		if err != nil {
			flagUnreadable(e, &summary, "could not open destination file: "+err.Error())
		} else {
			_, _, decErr := image.Decode(f)
			f.Close()
			if decErr != nil {
				flagUnreadable(e, &summary, "decode failed: "+decErr.Error())
			}
		}

		if (i+1)%25 == 0 || i == total-1 {
			em.emit(EventTriageProgress, EvTriageProgress{Checked: i + 1, Total: total})
		}
	}

	em.emit(EventTriageDone, EvTriageDone{Summary: summary})
	return summary
}

func flagUnreadable(e *FileEntry, summary *TriageSummary, reason string) {
	e.TriageFlags = append(e.TriageFlags, TriageFlag{
		Kind:       TriageUnreadable,
		Reason:     reason,
		Confidence: 1.0,
	})
	summary.UnreadableCount++
	summary.FlaggedFiles = append(summary.FlaggedFiles, e.DstRel)
}
