package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Registered image decoders.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// NormalizedSuffix marks image files that already hold a normalized glyph.
const NormalizedSuffix = "-conv.png"

// DefaultMaxPixels bounds the decoded size of an image (4096×4096).
const DefaultMaxPixels = 1 << 24

var (
	// ErrUnsupportedImage is returned for data no registered decoder accepts.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
	// ErrImageTooLarge is returned for images with more pixels than allowed.
	// It wraps ErrUnsupportedImage.
	ErrImageTooLarge = fmt.Errorf("%w: image too large", ErrUnsupportedImage)
)

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// DecodeImage decodes an image from r and returns it with its format name.
// The header is checked first: an image of more than maxPixels pixels fails
// with ErrImageTooLarge before its pixels are decoded. maxPixels <= 0
// disables the check.
func DecodeImage(r io.Reader, maxPixels int) (image.Image, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, format, nil
}

// ReadImage reads and decodes an image file of at most DefaultMaxPixels
// pixels.
func ReadImage(path string) (image.Image, string, error) {
	//nolint:gosec // G304: reading user-supplied image paths is the purpose
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()

	img, format, err := DecodeImage(f, DefaultMaxPixels)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return img, format, nil
}

// WriteImage writes img to path as PNG.
func WriteImage(path string, img image.Image) error {
	//nolint:gosec // G304: output path chosen by the user
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: encode %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// IsNormalizedPath reports whether path names a pre-normalized glyph.
func IsNormalizedPath(path string) bool {
	return strings.HasSuffix(filepath.Base(path), NormalizedSuffix)
}

// NormalizedPath returns the path the normalized version of path is
// written to: the same directory and stem with NormalizedSuffix.
func NormalizedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + NormalizedSuffix
}

// IsImagePath reports whether path has a supported image extension.
func IsImagePath(path string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImagePath(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// ExpandImageArgs turns command-line arguments into image paths: files are
// kept as given, directories are replaced by their images.
func ExpandImageArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := ListImages(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}
