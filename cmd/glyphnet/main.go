// Command glyphnet recognizes glyph images with a trained model.
//
//	glyphnet [flags] <model> <image> [image...]
//
// For a single image it prints "Result: <label>" and exits 0; on failure it
// reports on stderr and exits non-zero. With several images (or
// directories) every success is printed as "<path>: Result: <label>",
// failures are logged, and the exit status is 1 if any image failed.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/born-ml/glyphnet/internal/classifier"
	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/loader"
	"github.com/born-ml/glyphnet/internal/parallel"
)

const version = "v0.1.0-dev"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	normalized bool
	multi      bool
	scores     bool
}

// outcome is the recognition result of one image.
type outcome struct {
	text   string
	scores [][]float32
	err    error
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("glyphnet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	normalized := fs.Bool("normalized", false, "treat images as already normalized (also implied by a -conv.png name)")
	multi := fs.Bool("multi", false, "recognize every image as a line of glyphs")
	scores := fs.Bool("scores", false, "print the score vector of every glyph")
	logLevel := fs.String("log-level", "", "override log.level (debug, info, warn, error)")
	workers := fs.Int("workers", -1, "override parallel.workers (0 = one per core)")
	showVersion := fs.Bool("version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: glyphnet [flags] <model> <image> [image...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *showVersion {
		fmt.Fprintf(stdout, "glyphnet %s\n", version)
		return exitOK
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "glyphnet: %v\n", err)
		return exitFailure
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *workers >= 0 {
		cfg.Parallel.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "glyphnet: %v\n", err)
		return exitFailure
	}
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "glyphnet: %v\n", err)
		return exitFailure
	}

	clf, err := loader.LoadClassifier(fs.Arg(0), cfg, logger)
	if err != nil {
		logger.Error("cannot load model", "error", err)
		return exitFailure
	}

	opts := options{normalized: *normalized, multi: *multi, scores: *scores}
	paths, err := loader.ExpandImageArgs(fs.Args()[1:])
	if err != nil {
		logger.Error("cannot list images", "error", err)
		return exitFailure
	}
	if len(paths) == 0 {
		logger.Error("no images to recognize", "args", fs.Args()[1:])
		return exitFailure
	}

	if len(paths) == 1 && fs.NArg() == 2 {
		o := recognizeFile(clf, paths[0], opts)
		if o.err != nil {
			logger.Error("recognition failed", "path", paths[0], "error", o.err)
			return exitFailure
		}
		printOutcome(stdout, "", o, opts.scores)
		return exitOK
	}

	outcomes := make([]outcome, len(paths))
	parallel.For(len(paths), func(i int) {
		outcomes[i] = recognizeFile(clf, paths[i], opts)
	}, cfg.BatchParallelConfig())

	failed := 0
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			logger.Warn("recognition failed", "path", paths[i], "error", o.err)
			continue
		}
		printOutcome(stdout, paths[i]+": ", o, opts.scores)
	}
	logger.Info("batch done", "images", len(paths), "failed", failed)
	if failed > 0 {
		return exitFailure
	}
	return exitOK
}

// recognizeFile reads one image and recognizes it in the mode its name and
// the flags call for.
func recognizeFile(clf *classifier.Classifier, path string, opts options) outcome {
	img, _, err := loader.ReadImage(path)
	if err != nil {
		return outcome{err: err}
	}

	var results []classifier.Result
	switch {
	case opts.normalized || loader.IsNormalizedPath(path):
		r, err := clf.ClassifyNormalized(img)
		if err != nil {
			return outcome{err: err}
		}
		results = []classifier.Result{r}
	case opts.multi || clf.Normalizer().IsWide(img):
		_, rs, err := clf.ClassifyLine(img)
		if err != nil {
			return outcome{err: err}
		}
		results = rs
	default:
		r, err := clf.Classify(img)
		if err != nil {
			return outcome{err: err}
		}
		results = []classifier.Result{r}
	}

	if len(results) == 0 {
		return outcome{err: errors.New("no glyph recognized")}
	}
	var text strings.Builder
	o := outcome{}
	for _, r := range results {
		text.WriteString(r.Label)
		o.scores = append(o.scores, r.Scores)
	}
	o.text = text.String()
	return o
}

func printOutcome(w io.Writer, prefix string, o outcome, withScores bool) {
	fmt.Fprintf(w, "%sResult: %s\n", prefix, o.text)
	if !withScores {
		return
	}
	for i, scores := range o.scores {
		parts := make([]string, len(scores))
		for j, s := range scores {
			parts[j] = fmt.Sprintf("%.4f", s)
		}
		fmt.Fprintf(w, "%sScores[%d]: %s\n", prefix, i, strings.Join(parts, " "))
	}
}
