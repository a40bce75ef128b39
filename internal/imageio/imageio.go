// Package imageio provides image loading, size probing, and directory
// scanning for the annotation workflow.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"masklab/internal/annotation"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// supportedExtensions lists the image file extensions the application
// accepts, lowercased with leading dot.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
}

// Supported reports whether the file has a recognized image extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns the supported image extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load decodes the image at path for display.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// ProbeSize reads the pixel dimensions of the image at path without
// decoding the pixel data.
func ProbeSize(path string) (annotation.SizePx, error) {
	file, err := os.Open(path)
	if err != nil {
		return annotation.SizePx{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return annotation.SizePx{}, fmt.Errorf("failed to read image header %s: %w", filepath.Base(path), err)
	}
	return annotation.SizePx{Width: cfg.Width, Height: cfg.Height}, nil
}

// ListImages returns the supported image files directly inside dir, sorted
// by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// FindMatching looks for an image file in dir whose base name matches base
// under any supported extension. It returns the full path, or an empty
// string when no match exists.
func FindMatching(dir, base string) string {
	for _, ext := range Extensions() {
		for _, candidate := range []string{base + ext, base + strings.ToUpper(ext)} {
			path := filepath.Join(dir, candidate)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}
