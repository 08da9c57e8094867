package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/glyphnet/internal/classifier"
	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/engine"
	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/serialization"
)

// ErrIO wraps file-system failures.
var ErrIO = errors.New("i/o error")

// ReadModel reads and decodes a model file for arch. The layout is detected
// from the file contents and returned.
func ReadModel(path string, arch nn.Architecture) (*nn.Model, serialization.Format, error) {
	//nolint:gosec // G304: model path comes from the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIO, err)
	}
	format := serialization.DetectFormat(data)
	model, err := serialization.Decode(data, arch)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", path, err)
	}
	return model, format, nil
}

// WriteModel encodes model in format and writes it to path.
func WriteModel(path string, model *nn.Model, arch nn.Architecture, format serialization.Format) error {
	data, err := serialization.Encode(model, arch, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // model files are not secret
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// LoadClassifier builds the classifier for the model at modelPath using the
// glyph and parallelism settings of cfg. A nil logger discards output.
func LoadClassifier(modelPath string, cfg config.Config, logger *slog.Logger) (*classifier.Classifier, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	norm, err := glyph.NewNormalizer(cfg.GlyphOptions())
	if err != nil {
		return nil, err
	}

	arch := nn.GlyphNet(cfg.Glyph.Dim)
	model, format, err := ReadModel(modelPath, arch)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(arch, model, engine.Options{
		InputDim: cfg.Glyph.Dim,
		Parallel: cfg.ParallelConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}

	logger.Info("model loaded",
		"path", modelPath,
		"format", format.String(),
		"labels", eng.NumClasses(),
		"params", eng.NumParams(),
		"input_dim", eng.InputDim(),
		"workers", eng.Parallel().NumWorkers,
		"cpu", parallel.Describe(),
	)

	return classifier.New(norm, eng,
		classifier.WithLogger(logger),
		classifier.WithBatchParallel(cfg.BatchParallelConfig()),
	)
}
