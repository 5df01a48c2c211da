package archive

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tw := tar.NewWriter(f)
	for name, content := range files {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenZipListsMembersAndReadsPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")
	writeZip(t, path, map[string]string{"game.bin": "hello world"})

	a, ok, err := Open(path)
	if err != nil || !ok {
		t.Fatalf("expected zip to open, ok=%v err=%v", ok, err)
	}
	defer a.Close()

	members := a.Members()
	if len(members) != 1 || members[0].Name != "game.bin" {
		t.Fatalf("unexpected members: %v", members)
	}

	r, err := a.Open("game.bin")
	if err != nil {
		t.Fatalf("open member: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "hello world" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestOpenTarListsMembersAndReadsPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.tar")
	writeTar(t, path, map[string]string{"game.bin": "tar payload"})

	a, ok, err := Open(path)
	if err != nil || !ok {
		t.Fatalf("expected tar to open, ok=%v err=%v", ok, err)
	}
	defer a.Close()

	r, err := a.Open("game.bin")
	if err != nil {
		t.Fatalf("open member: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "tar payload" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestOpenPlainFileIsNotAnArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.bin")
	if err := os.WriteFile(path, []byte("just bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected plain file to not be recognized as an archive")
	}
}

func TestProbeReportsZipType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")
	writeZip(t, path, map[string]string{"game.bin": "x"})

	typ, ok := Probe(path)
	if !ok || typ != TypeZip {
		t.Fatalf("expected zip type, got %v ok=%v", typ, ok)
	}
}
