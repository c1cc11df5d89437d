package bundle

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndExtractRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	onDisk := filepath.Join(srcDir, "photo.jpg")
	require.NoError(t, os.WriteFile(onDisk, []byte("binary-ish content"), 0o644))

	items := []Item{
		{DisplayName: "note.txt", Text: "hello world"},
		{DisplayName: "photo.jpg", Path: onDisk},
	}

	var buf bytes.Buffer
	require.NoError(t, Build(&buf, items))

	outDir := t.TempDir()
	extracted, err := Extract(buf.Bytes(), outDir)
	require.NoError(t, err)
	require.Len(t, extracted, 2)

	byName := map[string]ExtractedFile{}
	for _, f := range extracted {
		byName[f.Name] = f
	}

	noteData, err := os.ReadFile(byName["note.txt"].Path)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(noteData))

	photoData, err := os.ReadFile(byName["photo.jpg"].Path)
	require.NoError(t, err)
	require.Equal(t, "binary-ish content", string(photoData))
}

func TestExtractDeduplicatesCollidingNames(t *testing.T) {
	items := []Item{
		{DisplayName: "a.txt", Text: "first"},
		{DisplayName: "a.txt", Text: "second"},
	}

	var buf bytes.Buffer
	require.NoError(t, Build(&buf, items))

	outDir := t.TempDir()
	extracted, err := Extract(buf.Bytes(), outDir)
	require.NoError(t, err)
	require.Len(t, extracted, 2)

	names := map[string]bool{}
	for _, f := range extracted {
		names[f.Name] = true
	}
	require.True(t, names["a.txt"])
	require.True(t, names["a_1.txt"])
}

func TestExtractDiscardsIndexPrefix(t *testing.T) {
	items := []Item{{DisplayName: "nested.txt", Text: "x"}}

	var buf bytes.Buffer
	require.NoError(t, Build(&buf, items))

	outDir := t.TempDir()
	extracted, err := Extract(buf.Bytes(), outDir)
	require.NoError(t, err)
	require.Equal(t, "nested.txt", extracted[0].Name)
}

func TestBuildUsesStoredCompression(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, []Item{{DisplayName: "a.txt", Text: "x"}}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	require.Equal(t, zip.Store, zr.File[0].Method)

	outDir := t.TempDir()
	_, err = Extract(buf.Bytes(), outDir)
	require.NoError(t, err)
}
