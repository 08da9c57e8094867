package loader

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/serialization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

var digits = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

// smallConfig uses a 24×24 GlyphNet to keep model files small.
func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Glyph.Dim = 24
	cfg.Glyph.Pad = 2
	cfg.Parallel.Enabled = false
	return cfg
}

func writeZeroModel(t *testing.T, dim int, format serialization.Format) string {
	t.Helper()
	arch := nn.GlyphNet(dim)
	m, err := nn.NewModel(arch, digits)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model-"+format.String()+".bin")
	require.NoError(t, WriteModel(path, m, arch, format))
	return path
}

func glyphImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 30, 40))
	draw.Draw(img, img.Rect, image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(10, 5, 20, 35), image.Black, image.Point{}, draw.Src)
	return img
}

func TestReadModel_BothFormats(t *testing.T) {
	arch := nn.GlyphNet(24)
	want, err := nn.NewModel(arch, digits)
	require.NoError(t, err)

	for _, format := range []serialization.Format{serialization.FormatLegacy, serialization.FormatV2} {
		t.Run(format.String(), func(t *testing.T) {
			path := writeZeroModel(t, 24, format)

			got, detected, err := ReadModel(path, arch)
			require.NoError(t, err)
			assert.Equal(t, format, detected)
			assert.True(t, want.Equal(got))
		})
	}
}

func TestReadModel_Errors(t *testing.T) {
	arch := nn.GlyphNet(24)

	_, _, err := ReadModel(filepath.Join(t.TempDir(), "missing.bin"), arch)
	assert.ErrorIs(t, err, ErrIO)

	path := writeZeroModel(t, 24, serialization.FormatLegacy)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o600))

	_, _, err = ReadModel(path, arch)
	assert.ErrorIs(t, err, serialization.ErrCorruptModel)
}

func TestImages_WriteReadAndFormats(t *testing.T) {
	dir := t.TempDir()
	img := glyphImage()

	pngPath := filepath.Join(dir, "a.png")
	require.NoError(t, WriteImage(pngPath, img))
	got, format, err := ReadImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, img.Bounds(), got.Bounds())

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	bmpPath := filepath.Join(dir, "b.bmp")
	require.NoError(t, os.WriteFile(bmpPath, buf.Bytes(), 0o600))
	_, format, err = ReadImage(bmpPath)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)

	bad := filepath.Join(dir, "c.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o600))
	_, _, err = ReadImage(bad)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = ReadImage(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestDecodeImage_PixelLimit(t *testing.T) {
	// Noise compresses badly, so the PNG is larger than the decoder's
	// read-ahead and the header replay is exercised.
	img := image.NewGray(image.Rect(0, 0, 120, 90))
	rng := rand.New(rand.NewSource(1))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.Greater(t, buf.Len(), 8192)
	data := buf.Bytes()

	got, format, err := DecodeImage(bytes.NewReader(data), 120*90)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	require.IsType(t, &image.Gray{}, got)
	assert.Equal(t, img.Pix, got.(*image.Gray).Pix)

	_, _, err = DecodeImage(bytes.NewReader(data), 120*90-1)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = DecodeImage(bytes.NewReader(data), 0)
	assert.NoError(t, err, "zero disables the limit")
}

func TestPaths(t *testing.T) {
	assert.True(t, IsNormalizedPath("/data/seven-conv.png"))
	assert.False(t, IsNormalizedPath("/data/seven.png"))
	assert.False(t, IsNormalizedPath("/data-conv.png/seven.png"))
	assert.Equal(t, filepath.Join("data", "seven-conv.png"), NormalizedPath(filepath.Join("data", "seven.jpg")))
	assert.True(t, IsImagePath("X.TIFF"))
	assert.False(t, IsImagePath("notes.txt"))
}

func TestExpandImageArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o700))
	single := filepath.Join(t.TempDir(), "single.gif")
	require.NoError(t, os.WriteFile(single, nil, 0o600))

	paths, err := ExpandImageArgs([]string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png")}, paths)

	_, err = ExpandImageArgs([]string{filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, ErrIO)
}

func TestLoadClassifier(t *testing.T) {
	cfg := smallConfig()
	path := writeZeroModel(t, 24, serialization.FormatV2)

	var logs bytes.Buffer
	c, err := LoadClassifier(path, cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	assert.Equal(t, digits, c.Labels())
	assert.Equal(t, 24, c.Dim())
	assert.Contains(t, logs.String(), "model loaded")
	assert.Contains(t, logs.String(), "format=v2")

	// Zero weights give uniform scores; ties go to the first label.
	r, err := c.Classify(glyphImage())
	require.NoError(t, err)
	assert.Equal(t, "0", r.Label)
	assert.InDelta(t, 0.1, r.Confidence, 1e-6)
}

func TestLoadClassifier_ArchitectureMismatch(t *testing.T) {
	cfg := smallConfig()
	cfg.Glyph.Dim = 32

	for _, format := range []serialization.Format{serialization.FormatLegacy, serialization.FormatV2} {
		path := writeZeroModel(t, 24, format)
		_, err := LoadClassifier(path, cfg, nil)
		assert.ErrorIs(t, err, serialization.ErrCorruptModel, format.String())
	}
}
