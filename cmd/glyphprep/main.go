// Command glyphprep writes the normalized form of glyph images.
//
//	glyphprep [flags] <image|dir> [image|dir...]
//
// For every image it writes <stem>-conv.png next to it: the D×D glyph the
// network sees, ink bright on dark. glyphnet classifies such files without
// normalizing them again. Images that already end in -conv.png are
// skipped; failures are logged and do not stop the run.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/loader"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glyphprep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	dim := fs.Int("dim", 0, "override glyph.dim")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: glyphprep [flags] <image|dir> [image|dir...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "glyphprep: %v\n", err)
		return 1
	}
	if *dim > 0 {
		cfg.Glyph.Dim = *dim
	}
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "glyphprep: %v\n", err)
		return 1
	}
	norm, err := glyph.NewNormalizer(cfg.GlyphOptions())
	if err != nil {
		logger.Error("invalid glyph options", "error", err)
		return 1
	}

	paths, err := loader.ExpandImageArgs(fs.Args())
	if err != nil {
		logger.Error("cannot list images", "error", err)
		return 1
	}

	failed := 0
	for _, path := range paths {
		if loader.IsNormalizedPath(path) {
			continue
		}
		out, err := prepare(norm, path)
		if err != nil {
			failed++
			logger.Warn("skipped", "path", path, "error", err)
			continue
		}
		fmt.Fprintln(stdout, out)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// prepare normalizes one image and writes it beside the original.
func prepare(norm *glyph.Normalizer, path string) (string, error) {
	img, _, err := loader.ReadImage(path)
	if err != nil {
		return "", err
	}
	t, err := norm.Normalize(img)
	if err != nil {
		return "", err
	}
	rendered, err := glyph.Render(t)
	if err != nil {
		return "", err
	}
	out := loader.NormalizedPath(path)
	if err := loader.WriteImage(out, rendered); err != nil {
		return "", err
	}
	return out, nil
}
