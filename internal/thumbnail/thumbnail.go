// Package thumbnail computes row thumbnail sizes from image headers.
package thumbnail

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether path has an extension the thumbnail row can show.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Size scales a width x height image to the given row height, keeping its
// aspect ratio. Unknown dimensions give a square.
func Size(width, height int, rowHeight float32) fyne.Size {
	if width <= 0 || height <= 0 {
		return fyne.NewSize(rowHeight, rowHeight)
	}
	aspect := float32(width) / float32(height)
	return fyne.NewSize(rowHeight*aspect, rowHeight)
}

// Probe reads just enough of the file to learn its pixel dimensions.
func Probe(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image %q: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header %q: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// SizeFor probes path and scales it to rowHeight. Files that cannot be
// probed get a square placeholder size along with the error.
func SizeFor(path string, rowHeight float32) (fyne.Size, error) {
	w, h, err := Probe(path)
	if err != nil {
		return Size(0, 0, rowHeight), err
	}
	return Size(w, h, rowHeight), nil
}
