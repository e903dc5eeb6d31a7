package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// writeRealJPEG writes a tiny but genuinely decodable JPEG, so the
// default triager's decode pass succeeds against it.
func writeRealJPEG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 40), uint8(y * 40), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// classicSource lays out S1's fixture: 3 jpg, 1 nef, 1 mov, plus a
// dotfile and a non-media file the scanner must ignore.
func classicSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeRealJPEG(t, filepath.Join(dir, "IMG_0001.jpg"))
	writeRealJPEG(t, filepath.Join(dir, "IMG_0002.jpg"))
	writeRealJPEG(t, filepath.Join(dir, "IMG_0003.jpg"))
	writeTestFile(t, filepath.Join(dir, "IMG_0004.nef"), 1024)
	writeTestFile(t, filepath.Join(dir, "CLIP_0001.mov"), 2048)
	writeTestFile(t, filepath.Join(dir, "notes.txt"), 16)
	writeTestFile(t, filepath.Join(dir, ".DS_Store"), 8)
	return dir
}

func TestRunIngestS1Classic(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()

	m, err := RunIngest(context.Background(), Params{
		SourcePath:      src,
		DestProjectPath: destParent,
		ProjectName:     "proj",
		VerifyMode:      VerifyNone,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if m.Totals.FileCount != 5 {
		t.Errorf("file_count = %d, want 5", m.Totals.FileCount)
	}
	if m.Totals.SuccessCount != 5 {
		t.Errorf("success_count = %d, want 5", m.Totals.SuccessCount)
	}
	if m.Totals.FailCount != 0 {
		t.Errorf("fail_count = %d, want 0", m.Totals.FailCount)
	}
	for _, e := range m.Files {
		if e.Status != StatusCopied {
			t.Errorf("entry %s: status = %v, want copied", e.SrcRel, e.Status)
		}
		if filepath.Dir(e.DstRel) != "01_RAW" {
			t.Errorf("entry %s: dst_rel = %q, want under 01_RAW/", e.SrcRel, e.DstRel)
		}
	}

	if _, err := os.Stat(filepath.Join(destParent, "proj", "01_RAW", "notes.txt")); !os.IsNotExist(err) {
		t.Error("notes.txt must not exist at destination")
	}
	if _, err := os.Stat(filepath.Join(destParent, "proj", "01_RAW", ".DS_Store")); !os.IsNotExist(err) {
		t.Error(".DS_Store must not exist at destination")
	}
}

func TestRunIngestS2OverwriteFalseRerun(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()

	params := Params{SourcePath: src, DestProjectPath: destParent, ProjectName: "proj", VerifyMode: VerifyNone}
	if _, err := RunIngest(context.Background(), params, nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	before := map[string][]byte{}
	projectRoot := filepath.Join(destParent, "proj", "01_RAW")
	entriesOnDisk, _ := os.ReadDir(projectRoot)
	for _, e := range entriesOnDisk {
		data, _ := os.ReadFile(filepath.Join(projectRoot, e.Name()))
		before[e.Name()] = data
	}

	m2, err := RunIngest(context.Background(), params, nil)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if m2.Totals.SkipCount != 5 {
		t.Errorf("skip_count = %d, want 5", m2.Totals.SkipCount)
	}
	if m2.Totals.SuccessCount != 0 {
		t.Errorf("success_count = %d, want 0", m2.Totals.SuccessCount)
	}
	for _, e := range m2.Files {
		if e.Status != StatusSkippedExists {
			t.Errorf("entry %s: status = %v, want skipped_exists", e.SrcRel, e.Status)
		}
	}

	for name, data := range before {
		after, err := os.ReadFile(filepath.Join(projectRoot, name))
		if err != nil || !bytes.Equal(data, after) {
			t.Errorf("destination bytes changed for %s across rerun", name)
		}
	}
}

func TestRunIngestS3SentinelVerify(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()

	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj", VerifyMode: VerifySentinel,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}
	if m.Totals.VerifiedCount != 5 {
		t.Errorf("verified_count = %d, want 5", m.Totals.VerifiedCount)
	}
	if m.Totals.VerifiedOK != 5 {
		t.Errorf("verified_ok = %d, want 5", m.Totals.VerifiedOK)
	}
	if m.Totals.VerifiedMismatch != 0 {
		t.Errorf("verified_mismatch = %d, want 0", m.Totals.VerifiedMismatch)
	}
}

func TestRunIngestS4DedupeAcrossTwoCards(t *testing.T) {
	src := t.TempDir()
	cardA := filepath.Join(src, "cardA")
	cardB := filepath.Join(src, "cardB")

	shared := bytes.Repeat([]byte("shared-bytes"), 10)
	writeBytesFile(t, filepath.Join(cardA, "IMG_001.jpg"), shared)
	writeBytesFile(t, filepath.Join(cardB, "IMG_001.jpg"), shared)
	writeBytesFile(t, filepath.Join(cardA, "IMG_002.jpg"), []byte("unique-bytes"))

	destParent := t.TempDir()
	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj",
		VerifyMode: VerifyNone, Dedupe: true,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if m.Totals.FileCount != 3 {
		t.Fatalf("file_count = %d, want 3", m.Totals.FileCount)
	}
	if m.Totals.SuccessCount != 2 {
		t.Errorf("success_count = %d, want 2", m.Totals.SuccessCount)
	}
	if m.Totals.DuplicateCount != 1 {
		t.Errorf("duplicate_count = %d, want 1", m.Totals.DuplicateCount)
	}
	if m.Totals.BytesSaved != int64(len(shared)) {
		t.Errorf("bytes_saved = %d, want %d", m.Totals.BytesSaved, len(shared))
	}

	var dupEntry *FileEntry
	for i := range m.Files {
		if m.Files[i].Status == StatusSkippedDup {
			dupEntry = &m.Files[i]
		}
	}
	if dupEntry == nil {
		t.Fatal("expected one skipped_duplicate entry")
	}

	var copiedOriginal *FileEntry
	for i := range m.Files {
		e := &m.Files[i]
		if e.Status == StatusCopied && e.DstRel == dupEntry.DuplicateOf {
			copiedOriginal = e
		}
	}
	if copiedOriginal == nil {
		t.Fatal("duplicate_of must reference a status=copied entry's dst_rel")
	}
	if copiedOriginal.Hash != dupEntry.Hash {
		t.Error("duplicate entry and its original must share the same hash")
	}
}

func TestRunIngestS5BackupHappyPath(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()
	backupParent := t.TempDir()

	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj",
		BackupDest: backupParent, VerifyMode: VerifySentinel,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if m.Totals.BackupSuccessCount != 5 {
		t.Errorf("backup_success_count = %d, want 5", m.Totals.BackupSuccessCount)
	}
	if m.Totals.BackupVerifiedOK != 5 {
		t.Errorf("backup_verified_ok = %d, want 5", m.Totals.BackupVerifiedOK)
	}
	if !m.SafeToFormat {
		t.Error("expected safe_to_format = true")
	}

	for _, e := range m.Files {
		primaryPath := filepath.Join(destParent, "proj", e.DstRel)
		backupPath := filepath.Join(backupParent, "proj", e.DstRel)
		p, err1 := os.ReadFile(primaryPath)
		b, err2 := os.ReadFile(backupPath)
		if err1 != nil || err2 != nil {
			t.Fatalf("missing copy for %s: %v / %v", e.SrcRel, err1, err2)
		}
		if !bytes.Equal(p, b) {
			t.Errorf("primary and backup differ for %s", e.SrcRel)
		}
	}
}

func TestRunIngestS7TemplateRouting(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()

	tmpl := &FolderTemplate{
		ID: "three-way",
		Rules: []RoutingRule{
			{Label: "RAW", MediaType: MediaRAW, DestPattern: "RAW"},
			{Label: "VIDEO", MediaType: MediaVideo, DestPattern: "VIDEO"},
			{Label: "PHOTO", DestPattern: "PHOTO"},
		},
		Scaffolds: []string{"RAW", "VIDEO", "PHOTO"},
	}

	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj",
		VerifyMode: VerifyNone, FolderTemplate: tmpl,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	for _, e := range m.Files {
		switch e.MediaType {
		case MediaRAW:
			if filepath.Dir(e.DstRel) != "RAW" || e.RoutedBy != "RAW" {
				t.Errorf("raw entry %s routed to %s by %s", e.SrcRel, e.DstRel, e.RoutedBy)
			}
		case MediaVideo:
			if filepath.Dir(e.DstRel) != "VIDEO" || e.RoutedBy != "VIDEO" {
				t.Errorf("video entry %s routed to %s by %s", e.SrcRel, e.DstRel, e.RoutedBy)
			}
		case MediaPhoto:
			if filepath.Dir(e.DstRel) != "PHOTO" || e.RoutedBy != "PHOTO" {
				t.Errorf("photo entry %s routed to %s by %s", e.SrcRel, e.DstRel, e.RoutedBy)
			}
		}
	}

	if _, err := os.Stat(filepath.Join(destParent, "proj", "01_RAW")); !os.IsNotExist(err) {
		t.Error("legacy 01_RAW directory must not exist when a template is used")
	}
}

func TestRunIngestS6UnreadableForcesUnsafe(t *testing.T) {
	src := t.TempDir()
	writeRealJPEG(t, filepath.Join(src, "IMG_0001.jpg"))
	writeRealJPEG(t, filepath.Join(src, "IMG_0002.jpg"))
	writeRealJPEG(t, filepath.Join(src, "IMG_0003.jpg"))
	writeBytesFile(t, filepath.Join(src, "CORRUPT.jpg"), []byte("garbage!"))

	destParent := t.TempDir()
	backupParent := t.TempDir()

	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj",
		BackupDest: backupParent, VerifyMode: VerifySentinel,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if m.Totals.SuccessCount != 4 {
		t.Errorf("success_count = %d, want 4", m.Totals.SuccessCount)
	}
	if m.Totals.TriageUnreadableCount != 1 {
		t.Errorf("triage_unreadable_count = %d, want 1", m.Totals.TriageUnreadableCount)
	}
	if m.SafeToFormat {
		t.Error("safe_to_format must be false when an unreadable file is flagged")
	}

	var flagged *FileEntry
	for i := range m.Files {
		if len(m.Files[i].TriageFlags) > 0 {
			flagged = &m.Files[i]
		}
	}
	if flagged == nil || flagged.SrcRel != "CORRUPT.jpg" {
		t.Fatalf("expected CORRUPT.jpg to carry a triage flag, got %+v", flagged)
	}
	if flagged.TriageFlags[0].Kind != TriageUnreadable {
		t.Errorf("flag kind = %v, want unreadable", flagged.TriageFlags[0].Kind)
	}

	reportData, err := os.ReadFile(m.ReportPath)
	if err != nil {
		t.Fatalf("could not read report: %v", err)
	}
	if !bytes.Contains(reportData, []byte("Unreadable File")) {
		t.Error(`report HTML must contain "Unreadable File"`)
	}
}

func TestRunIngestCancelledRunIsNeverSafe(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()
	backupParent := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	var copied int
	onProgress := func(ev Event) {
		if ev.Type == EventCopyProgress {
			copied++
			if copied == 2 {
				cancel()
			}
		}
	}

	m, err := RunIngest(ctx, Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj",
		BackupDest: backupParent, VerifyMode: VerifyFull,
	}, onProgress)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if m.SafeToFormat {
		t.Error("a cancelled run must never report safe_to_format=true")
	}
	if m.Totals.FileCount >= 5 {
		t.Errorf("file_count = %d, expected fewer than the full 5 after cancellation", m.Totals.FileCount)
	}
	if m.ManifestPath == "" {
		t.Error("cancelled run must still write and reference a manifest")
	}
	if _, statErr := os.Stat(m.ManifestPath); statErr != nil {
		t.Errorf("manifest missing on disk after cancellation: %v", statErr)
	}
}

func TestRunIngestInvalidSourceIsFatal(t *testing.T) {
	_, err := RunIngest(context.Background(), Params{
		SourcePath:      filepath.Join(t.TempDir(), "does-not-exist"),
		DestProjectPath: t.TempDir(),
		ProjectName:     "proj",
	}, nil)
	if err == nil {
		t.Fatal("expected an error for a missing source directory")
	}
}

func TestRunIngestStatusCountsSumToFileCount(t *testing.T) {
	src := classicSource(t)
	destParent := t.TempDir()

	m, err := RunIngest(context.Background(), Params{
		SourcePath: src, DestProjectPath: destParent, ProjectName: "proj", VerifyMode: VerifyFull,
	}, nil)
	if err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	tot := m.Totals
	if sum := tot.SuccessCount + tot.FailCount + tot.SkipCount + tot.DuplicateCount; sum != tot.FileCount {
		t.Errorf("per-status counts sum to %d, want file_count %d", sum, tot.FileCount)
	}

	var totalBytes int64
	for _, e := range m.Files {
		if e.Status == StatusCopied {
			totalBytes += e.Bytes
		}
	}
	if totalBytes != tot.TotalBytes {
		t.Errorf("total_bytes = %d, want sum of copied entry sizes %d", tot.TotalBytes, totalBytes)
	}
}

func writeBytesFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
