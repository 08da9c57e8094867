// Package loader is the public entry point of glyphnet: it opens a model
// file and returns a ready Recognizer.
//
// Example usage:
//
//	import "github.com/born-ml/glyphnet/loader"
//
//	rec, err := loader.Open("model.bin", loader.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := rec.Recognize(img)
package loader

import (
	"log/slog"

	"github.com/born-ml/glyphnet/internal/classifier"
	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/loader"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/serialization"
)

// Recognizer classifies glyph images. It is safe for concurrent use.
//
// Note: This is a type alias because its methods return internal result
// types that cannot be abstracted without a wrapper layer.
type Recognizer = classifier.Classifier

// Result is the outcome of classifying one glyph.
type Result = classifier.Result

// Config is the glyphnet configuration.
type Config = config.Config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Open loads the model at modelPath (legacy or v2 layout) and returns a
// Recognizer using cfg's normalization and parallelism settings.
func Open(modelPath string, cfg Config) (*Recognizer, error) {
	return loader.LoadClassifier(modelPath, cfg, nil)
}

// OpenWithLogger is Open with a logger for load and per-glyph messages.
func OpenWithLogger(modelPath string, cfg Config, logger *slog.Logger) (*Recognizer, error) {
	return loader.LoadClassifier(modelPath, cfg, logger)
}

// Common errors, matched with errors.Is.
var (
	ErrIO            = loader.ErrIO
	ErrInvalidImage  = glyph.ErrInvalidImage
	ErrCorruptModel  = serialization.ErrCorruptModel
	ErrConfiguration = nn.ErrConfiguration
)
