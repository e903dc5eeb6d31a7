package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyWithHashCopiesAndHashes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	if err := os.WriteFile(src, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out", "dst.jpg")
	result := copyWithHash(src, dst, AlgoSHA256, false)
	if result.Status != StatusCopied {
		t.Fatalf("expected StatusCopied, got %v (err=%v)", result.Status, result.Err)
	}
	if result.Bytes != 11 {
		t.Errorf("expected 11 bytes, got %d", result.Bytes)
	}
	if len(result.Hash) != 64 {
		t.Errorf("expected 64-char sha256 hex digest, got %d chars", len(result.Hash))
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("destination content mismatch: %q", data)
	}

	if _, err := os.Stat(dst + ".partial"); !os.IsNotExist(err) {
		t.Error("expected no leftover .partial file")
	}
}

func TestCopyWithHashSkipsExistingWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	os.WriteFile(src, []byte("new content"), 0o644)

	dst := filepath.Join(dir, "dst.jpg")
	os.WriteFile(dst, []byte("old content"), 0o644)

	result := copyWithHash(src, dst, AlgoSHA256, false)
	if result.Status != StatusSkippedExists {
		t.Fatalf("expected StatusSkippedExists, got %v", result.Status)
	}
	if result.Bytes != int64(len("old content")) {
		t.Errorf("expected existing size reported, got %d", result.Bytes)
	}

	data, _ := os.ReadFile(dst)
	if string(data) != "old content" {
		t.Error("destination must not be touched when overwrite=false and dst exists")
	}
}

func TestCopyWithHashAlgorithms(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	os.WriteFile(src, []byte("payload"), 0o644)

	for algo, wantLen := range map[HashAlgo]int{
		AlgoSHA256: 64,
		AlgoSHA512: 128,
		AlgoBlake3: 64,
	} {
		dst := filepath.Join(dir, string(algo)+".bin")
		result := copyWithHash(src, dst, algo, false)
		if result.Status != StatusCopied {
			t.Fatalf("%s: expected copied, got %v", algo, result.Status)
		}
		if len(result.Hash) != wantLen {
			t.Errorf("%s: expected %d hex chars, got %d", algo, wantLen, len(result.Hash))
		}
	}
}

func TestHashFileMatchesCopyHash(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	os.WriteFile(src, []byte("verify me"), 0o644)

	dst := filepath.Join(dir, "dst.jpg")
	result := copyWithHash(src, dst, AlgoSHA256, false)

	digest, err := hashFile(dst, AlgoSHA256)
	if err != nil {
		t.Fatal(err)
	}
	if digest != result.Hash {
		t.Errorf("hashFile(%s) = %s, want %s", dst, digest, result.Hash)
	}
}
