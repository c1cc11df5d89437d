// Package bundle implements the container used to stream one or more
// files (or a text clip) in a single HTTPS response: a ZIP archive
// whose entries are named "{index}/{display_name}".
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Item is one entry to place in the bundle: either a file on disk
// (Path set) or inline text content (Text set).
type Item struct {
	DisplayName string
	Path        string
	Text        string
}

// Build writes items into a ZIP archive, one entry per item named
// "{index}/{display_name}", using ZIP_STORED (no compression) to match
// the reference encoder's streaming-friendly choice.
func Build(w io.Writer, items []Item) error {
	zw := zip.NewWriter(w)

	for i, item := range items {
		name := fmt.Sprintf("%d/%s", i, item.DisplayName)
		header := &zip.FileHeader{Name: name, Method: zip.Store}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("mta/bundle: create entry %q: %w", name, err)
		}

		if item.Path != "" {
			if err := copyFile(entry, item.Path); err != nil {
				return err
			}
			continue
		}

		if _, err := entry.Write([]byte(item.Text)); err != nil {
			return fmt.Errorf("mta/bundle: write entry %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("mta/bundle: close zip writer: %w", err)
	}
	return nil
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("mta/bundle: open %q: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("mta/bundle: copy %q: %w", path, err)
	}
	return nil
}

// ExtractedFile describes one file written to disk by Extract.
type ExtractedFile struct {
	Name string
	Path string
	Size int64
}

// Extract reads a ZIP stream and writes each entry's basename into
// outputDir, de-duplicating name collisions as "name_N.ext". Only the
// basename of each archive entry survives; the "{index}/" prefix is
// discarded.
func Extract(data []byte, outputDir string) ([]ExtractedFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("mta/bundle: open zip: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mta/bundle: create output dir: %w", err)
	}

	var out []ExtractedFile
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(f.Name)
		destPath := uniquePath(outputDir, name)

		if err := extractOne(f, destPath); err != nil {
			return nil, err
		}

		out = append(out, ExtractedFile{
			Name: filepath.Base(destPath),
			Path: destPath,
			Size: int64(f.UncompressedSize64),
		})
	}

	return out, nil
}

func extractOne(f *zip.File, destPath string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("mta/bundle: open entry %q: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("mta/bundle: create %q: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("mta/bundle: extract %q: %w", f.Name, err)
	}
	return nil
}

// uniquePath finds a non-existent path for name under dir, appending
// "_N" before the extension on collision, per the extraction policy.
func uniquePath(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
