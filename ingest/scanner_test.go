package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanSourceFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "c.jpg"), 10)
	writeTestFile(t, filepath.Join(dir, "a.nef"), 10)
	writeTestFile(t, filepath.Join(dir, "b.mov"), 10)
	writeTestFile(t, filepath.Join(dir, "notes.txt"), 10)
	writeTestFile(t, filepath.Join(dir, ".DS_Store"), 10)
	writeTestFile(t, filepath.Join(dir, ".hidden", "d.jpg"), 10)

	files, err := scanSource(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}

	want := []string{"a.nef", "b.mov", "c.jpg"}
	for i, f := range files {
		if f.SrcRel != want[i] {
			t.Errorf("files[%d].SrcRel = %q, want %q", i, f.SrcRel, want[i])
		}
	}

	if files[0].MediaType != MediaRAW {
		t.Errorf("a.nef should be MediaRAW, got %v", files[0].MediaType)
	}
	if files[1].MediaType != MediaVideo {
		t.Errorf("b.mov should be MediaVideo, got %v", files[1].MediaType)
	}
	if files[2].MediaType != MediaPhoto {
		t.Errorf("c.jpg should be MediaPhoto, got %v", files[2].MediaType)
	}
}

func TestScanSourceEmitsProgress(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeTestFile(t, filepath.Join(dir, string(rune('a'+i))+".jpg"), 1)
	}

	var events []Event
	em := newEmitter(func(e Event) { events = append(events, e) })

	files, err := scanSource(dir, em)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 5 {
		t.Fatalf("expected 5 files, got %d", len(files))
	}
	if len(events) == 0 {
		t.Fatal("expected at least one scan.progress event")
	}
	last := events[len(events)-1].Data.(EvScanProgress)
	if last.DiscoveredCount != 5 {
		t.Errorf("final scan.progress count = %d, want 5", last.DiscoveredCount)
	}
}
