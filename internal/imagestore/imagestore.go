package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// MaxFileSize is the per-file upload ceiling.
	MaxFileSize = 10 << 20

	CatalogSuffix = "_catalog.jpg"
	ViewSuffix    = "_view.jpg"

	catalogBound = 150
	viewBound    = 800
	jpegQuality  = 85
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

func ValidImageType(mediaType string) bool {
	_, ok := allowedTypes[mediaType]
	return ok
}

// GenerateFilename produces a name unique with overwhelming probability:
// millisecond timestamp plus a random token, keeping the original extension.
func GenerateFilename(originalName string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), token, ext)
}

// Store writes originals and derived variants under a single directory.
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) Path(filename string) string {
	return filepath.Join(s.Dir, filename)
}

func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// VariantPaths returns the three physical paths backing one logical image:
// the original, the catalog thumbnail and the view image.
func (s *Store) VariantPaths(filename string) []string {
	base := baseName(filename)
	return []string{
		filepath.Join(s.Dir, filename),
		filepath.Join(s.Dir, base+CatalogSuffix),
		filepath.Join(s.Dir, base+ViewSuffix),
	}
}

// SaveOriginal writes the uploaded bytes verbatim, creating the upload
// directory on demand.
func (s *Store) SaveOriginal(filename string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(s.Path(filename), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// DeriveResult is the outcome of one derivative write. Failures are
// reported, never raised: a broken resample must not undo the original.
type DeriveResult struct {
	Path string
	Err  error
}

// Derive produces the catalog and view variants from the original bytes.
// Images are bounded to the target box preserving aspect ratio, never
// upscaled, and re-encoded as baseline JPEG. Each variant fails
// independently; a decode failure fails both.
func (s *Store) Derive(filename string, data []byte) []DeriveResult {
	base := baseName(filename)
	variants := []struct {
		path  string
		bound int
	}{
		{filepath.Join(s.Dir, base+CatalogSuffix), catalogBound},
		{filepath.Join(s.Dir, base+ViewSuffix), viewBound},
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		results := make([]DeriveResult, 0, len(variants))
		for _, v := range variants {
			results = append(results, DeriveResult{Path: v.path, Err: fmt.Errorf("decode %s: %w", filename, err)})
		}
		return results
	}

	results := make([]DeriveResult, 0, len(variants))
	for _, v := range variants {
		// Fit scales down only, so small originals are re-encoded as-is.
		dst := imaging.Fit(src, v.bound, v.bound, imaging.Lanczos)
		err := imaging.Save(dst, v.path, imaging.JPEGQuality(jpegQuality))
		results = append(results, DeriveResult{Path: v.path, Err: err})
	}
	return results
}

// Remove deletes all three physical files for a logical image. Missing
// files are skipped; any other failure is reported per path.
func (s *Store) Remove(filename string) []DeriveResult {
	paths := s.VariantPaths(filename)
	results := make([]DeriveResult, 0, len(paths))
	for _, p := range paths {
		err := os.Remove(p)
		if os.IsNotExist(err) {
			err = nil
		}
		results = append(results, DeriveResult{Path: p, Err: err})
	}
	return results
}
