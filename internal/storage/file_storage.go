package storage

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// FileStore reads and writes images on the local filesystem
type FileStore struct {
	outputDir string
	format    imaging.Format
	hasFormat bool
}

// NewFileStore creates a store writing into outputDir. An empty format keeps
// each input's own format.
func NewFileStore(outputDir, format string) (*FileStore, error) {
	store := &FileStore{outputDir: outputDir}
	if format != "" {
		parsed, err := ParseFormat(format)
		if err != nil {
			return nil, err
		}
		store.format = parsed
		store.hasFormat = true
	}
	return store, nil
}

// Open loads an image from disk, applying EXIF orientation
func (s *FileStore) Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return img, nil
}

// OutputPath returns where the augmented version of inputPath is written
func (s *FileStore) OutputPath(inputPath, suffix string) (string, error) {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if s.hasFormat {
		ext = "." + strings.ToLower(s.format.String())
	} else if _, err := imaging.FormatFromFilename(base); err != nil {
		// Inputs that can't be re-encoded as-is (webp) fall back to png
		ext = ".png"
	}

	if suffix != "" {
		stem = stem + "_" + suffix
	}
	return filepath.Join(s.outputDir, stem+ext), nil
}

// Save writes img to path, creating the output directory when needed
func (s *FileStore) Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
