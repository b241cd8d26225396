package imagestore

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestValidImageType(t *testing.T) {
	for _, typ := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		require.True(t, ValidImageType(typ), typ)
	}
	for _, typ := range []string{"application/pdf", "text/html", "image/svg+xml", ""} {
		require.False(t, ValidImageType(typ), typ)
	}
}

func TestGenerateFilename(t *testing.T) {
	name := GenerateFilename("Photo.JPG")
	require.Regexp(t, `^\d+_[0-9a-f]{13}\.jpg$`, name)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		n := GenerateFilename("a.png")
		_, dup := seen[n]
		require.False(t, dup, n)
		seen[n] = struct{}{}
	}
}

func TestSaveOriginalCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s := New(dir)

	data := []byte{1, 2, 3}
	require.NoError(t, s.SaveOriginal("x.jpg", data))

	saved, err := os.ReadFile(filepath.Join(dir, "x.jpg"))
	require.NoError(t, err)
	require.Equal(t, data, saved)
}

func TestDeriveBoundsAndAspect(t *testing.T) {
	s := New(t.TempDir())
	data := encodeJPEG(t, 1000, 500)
	require.NoError(t, s.SaveOriginal("wide.jpg", data))

	results := s.Derive("wide.jpg", data)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err, r.Path)
	}

	w, h := decodeSize(t, filepath.Join(s.Dir, "wide_catalog.jpg"))
	require.Equal(t, 150, w)
	require.Equal(t, 75, h)

	w, h = decodeSize(t, filepath.Join(s.Dir, "wide_view.jpg"))
	require.Equal(t, 800, w)
	require.Equal(t, 400, h)
}

func TestDeriveNeverUpscales(t *testing.T) {
	s := New(t.TempDir())
	data := encodeJPEG(t, 100, 60)

	results := s.Derive("small.jpg", data)
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	w, h := decodeSize(t, filepath.Join(s.Dir, "small_catalog.jpg"))
	require.Equal(t, 100, w)
	require.Equal(t, 60, h)

	w, h = decodeSize(t, filepath.Join(s.Dir, "small_view.jpg"))
	require.Equal(t, 100, w)
	require.Equal(t, 60, h)
}

func TestDeriveUndecodableInput(t *testing.T) {
	s := New(t.TempDir())

	results := s.Derive("junk.jpg", []byte("definitely not an image"))
	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
		_, statErr := os.Stat(r.Path)
		require.True(t, os.IsNotExist(statErr))
	}
}

func TestVariantPaths(t *testing.T) {
	s := New("/uploads")
	paths := s.VariantPaths("123_abc.png")
	require.Equal(t, []string{
		filepath.Join("/uploads", "123_abc.png"),
		filepath.Join("/uploads", "123_abc_catalog.jpg"),
		filepath.Join("/uploads", "123_abc_view.jpg"),
	}, paths)
}

func TestRemoveBestEffort(t *testing.T) {
	s := New(t.TempDir())
	data := encodeJPEG(t, 300, 300)
	require.NoError(t, s.SaveOriginal("p.jpg", data))
	for _, r := range s.Derive("p.jpg", data) {
		require.NoError(t, r.Err)
	}

	results := s.Remove("p.jpg")
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
		_, err := os.Stat(r.Path)
		require.True(t, os.IsNotExist(err))
	}

	// removing again: all three already gone, still no errors
	for _, r := range s.Remove("p.jpg") {
		require.NoError(t, r.Err)
	}
}
