// Command glyphconv converts glyph model files between the legacy and the
// v2 layout, and prints the header of v2 files.
//
//	glyphconv [-dim 48] -to v2 <in> <out>
//	glyphconv -inspect <file>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/glyphnet/internal/loader"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/serialization"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glyphconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	to := fs.String("to", "v2", "output layout: legacy or v2")
	dim := fs.Int("dim", nn.DefaultInputDim, "input dim of the architecture (legacy files do not record it)")
	inspect := fs.Bool("inspect", false, "print the header of a v2 file and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: glyphconv [-dim N] [-to legacy|v2] <in> <out>")
		fmt.Fprintln(stderr, "       glyphconv -inspect <file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inspect {
		if fs.NArg() != 1 {
			fs.Usage()
			return 2
		}
		if err := printHeader(stdout, fs.Arg(0)); err != nil {
			fmt.Fprintf(stderr, "glyphconv: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	format, err := serialization.ParseFormat(*to)
	if err != nil {
		fmt.Fprintf(stderr, "glyphconv: %v\n", err)
		return 2
	}

	arch := nn.GlyphNet(*dim)
	model, from, err := loader.ReadModel(fs.Arg(0), arch)
	if err != nil {
		fmt.Fprintf(stderr, "glyphconv: %v\n", err)
		return 1
	}
	if err := loader.WriteModel(fs.Arg(1), model, arch, format); err != nil {
		fmt.Fprintf(stderr, "glyphconv: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s (%s) -> %s (%s), %d labels\n", fs.Arg(0), from, fs.Arg(1), format, len(model.Labels))
	return 0
}

func printHeader(w io.Writer, path string) error {
	//nolint:gosec // G304: user-supplied model path
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", loader.ErrIO, err)
	}
	if serialization.DetectFormat(data) != serialization.FormatV2 {
		return fmt.Errorf("%s: legacy layout has no header", path)
	}
	h, err := serialization.Inspect(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(w, "version:   %d\n", h.Version)
	fmt.Fprintf(w, "flags:     %#x\n", h.Flags)
	fmt.Fprintf(w, "input dim: %d\n", h.InputDim)
	fmt.Fprintf(w, "params:    %d\n", h.NumParams())
	fmt.Fprintf(w, "labels:    %d %q\n", len(h.Labels), h.Labels)
	for i, l := range h.Layers {
		fmt.Fprintf(w, "layer %d:   %s kernel=%v bias=%d\n", i, l.Kind, l.Kernel, l.BiasLen)
	}
	return nil
}
