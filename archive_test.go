package docbatch

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	contents := map[string]string{
		"a.pdf": "first document",
		"b.pdf": "second document",
	}
	var files []string
	for name, body := range contents {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		files = append(files, path)
	}

	zipPath := filepath.Join(dir, "result.zip")
	if err := BuildArchive(zipPath, files); err != nil {
		t.Fatalf("BuildArchive() error: %v", err)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer func() { _ = reader.Close() }()

	if len(reader.File) != len(contents) {
		t.Fatalf("archive has %d entries, want %d", len(reader.File), len(contents))
	}
	for _, entry := range reader.File {
		want, ok := contents[entry.Name]
		if !ok {
			t.Errorf("unexpected entry %q (entries must be basenames)", entry.Name)
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("entry %q = %q, want %q", entry.Name, got, want)
		}
	}
}

func TestBuildArchiveMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := BuildArchive(filepath.Join(dir, "result.zip"), []string{filepath.Join(dir, "missing.pdf")})
	if !errors.Is(err, ErrArchiveBuild) {
		t.Errorf("BuildArchive() error = %v, want ErrArchiveBuild", err)
	}
}

func TestBuildArchiveEmptyFileList(t *testing.T) {
	t.Parallel()

	zipPath := filepath.Join(t.TempDir(), "result.zip")
	if err := BuildArchive(zipPath, nil); err != nil {
		t.Fatalf("BuildArchive() error: %v", err)
	}

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer func() { _ = reader.Close() }()
	if len(reader.File) != 0 {
		t.Errorf("archive has %d entries, want 0", len(reader.File))
	}
}
