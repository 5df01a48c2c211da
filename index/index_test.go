package index

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestBuildIndexesPlainFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.bin"), "alpha")
	writeFile(t, filepath.Join(dir, "b.bin"), "beta")

	ix := New(Config{Threads: 2})
	m, err := ix.Build(dir)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	if loc, ok := m[sha1Hex("alpha")]; !ok || loc.IsArchive {
		t.Fatalf("expected alpha digest indexed as a plain file, got %+v ok=%v", loc, ok)
	}
	if loc, ok := m[sha1Hex("beta")]; !ok || loc.IsArchive {
		t.Fatalf("expected beta digest indexed as a plain file, got %+v ok=%v", loc, ok)
	}
}

func TestBuildIndexesArchiveMembers(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("game.bin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	ix := New(Config{Threads: 1})
	m, err := ix.Build(dir)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}

	loc, ok := m[sha1Hex("payload")]
	if !ok {
		t.Fatalf("expected archived member digest to be indexed")
	}
	if !loc.IsArchive || loc.Member != "game.bin" || loc.Path != zipPath {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestMergePrefersNonArchive(t *testing.T) {
	merged := map[string]Location{}
	mergeInto(merged, "d1", Location{Path: "a.zip", Member: "x", IsArchive: true})
	mergeInto(merged, "d1", Location{Path: "x.bin", IsArchive: false})

	if merged["d1"].IsArchive {
		t.Fatalf("expected non-archive location to win, got %+v", merged["d1"])
	}
}

func TestMergeKeepsFirstSeenAmongSameKind(t *testing.T) {
	merged := map[string]Location{}
	mergeInto(merged, "d1", Location{Path: "first.bin"})
	mergeInto(merged, "d1", Location{Path: "second.bin"})

	if merged["d1"].Path != "first.bin" {
		t.Fatalf("expected first-seen path to win, got %q", merged["d1"].Path)
	}
}
