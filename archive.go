package docbatch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"
)

// BuildArchive writes a ZIP archive at zipPath containing every file in
// files, each stored under its basename. Entries are deflated at the
// maximum compression level.
func BuildArchive(zipPath string, files []string) error {
	out, err := os.Create(zipPath) // #nosec G304 -- path is service-owned
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrArchiveBuild, zipPath, err)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, file := range files {
		if err := addArchiveEntry(zw, file); err != nil {
			_ = zw.Close()
			_ = out.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: finalizing archive: %v", ErrArchiveBuild, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrArchiveBuild, zipPath, err)
	}
	return nil
}

func addArchiveEntry(zw *zip.Writer, file string) error {
	in, err := os.Open(file) // #nosec G304 -- files are service-produced
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrArchiveBuild, file, err)
	}
	defer func() { _ = in.Close() }()

	entry, err := zw.Create(filepath.Base(file))
	if err != nil {
		return fmt.Errorf("%w: adding %s: %v", ErrArchiveBuild, file, err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrArchiveBuild, file, err)
	}
	return nil
}
