// Package classifier composes normalization and inference into glyph
// recognition: single glyphs, batches and lines of glyphs.
package classifier

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"

	"github.com/born-ml/glyphnet/internal/engine"
	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/nn"
	"github.com/born-ml/glyphnet/internal/parallel"
	"github.com/born-ml/glyphnet/internal/tensor"
)

// Result is the outcome of classifying one glyph.
type Result struct {
	Label      string
	Index      int
	Confidence float32   // score of the winning class
	Scores     []float32 // one per label, summing to 1
}

// BatchResult pairs a batch item with its outcome. Exactly one of Result
// and Err is meaningful.
type BatchResult struct {
	Result Result
	Err    error
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for per-glyph debug output and batch
// failures. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBatchParallel sets how batch items are spread over goroutines.
func WithBatchParallel(cfg parallel.Config) Option {
	return func(c *Classifier) {
		c.batch = cfg
	}
}

// Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	norm   *glyph.Normalizer
	eng    *engine.Engine
	logger *slog.Logger
	batch  parallel.Config
}

// New pairs a normalizer with an engine. Their dimensions must agree.
func New(norm *glyph.Normalizer, eng *engine.Engine, opts ...Option) (*Classifier, error) {
	if norm == nil || eng == nil {
		return nil, fmt.Errorf("%w: classifier needs a normalizer and an engine", nn.ErrConfiguration)
	}
	if norm.Dim() != eng.InputDim() {
		return nil, fmt.Errorf("%w: normalizer produces %dx%d, engine expects %dx%d",
			nn.ErrConfiguration, norm.Dim(), norm.Dim(), eng.InputDim(), eng.InputDim())
	}

	n := parallel.NumCores()
	c := &Classifier{
		norm:   norm,
		eng:    eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		batch:  parallel.Config{Enabled: n > 1, NumWorkers: n, MinChunkSize: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify normalizes a raw glyph image and classifies it.
func (c *Classifier) Classify(img image.Image) (Result, error) {
	t, err := c.norm.Normalize(img)
	if err != nil {
		return Result{}, err
	}
	return c.ClassifyTensor(t)
}

// ClassifyNormalized classifies an image that is already a normalized
// D×D glyph.
func (c *Classifier) ClassifyNormalized(img image.Image) (Result, error) {
	t, err := c.norm.FromNormalized(img)
	if err != nil {
		return Result{}, err
	}
	return c.ClassifyTensor(t)
}

// ClassifyTensor classifies a [1,D,D] tensor.
func (c *Classifier) ClassifyTensor(t *tensor.Tensor) (Result, error) {
	idx, scores, err := c.eng.Predict(t)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		Label:      c.eng.Label(idx),
		Index:      idx,
		Confidence: scores[idx],
		Scores:     scores,
	}
	c.logger.Debug("classified glyph", "label", r.Label, "index", r.Index, "confidence", r.Confidence)
	return r, nil
}

// ClassifyBatch classifies raw glyph images in parallel. A failing item
// carries its own error and does not affect the others.
func (c *Classifier) ClassifyBatch(imgs []image.Image) []BatchResult {
	return c.batchOf(len(imgs), func(i int) (Result, error) {
		return c.Classify(imgs[i])
	})
}

// ClassifyNormalizedBatch is ClassifyBatch for pre-normalized images.
func (c *Classifier) ClassifyNormalizedBatch(imgs []image.Image) []BatchResult {
	return c.batchOf(len(imgs), func(i int) (Result, error) {
		return c.ClassifyNormalized(imgs[i])
	})
}

func (c *Classifier) batchOf(n int, classify func(i int) (Result, error)) []BatchResult {
	results := make([]BatchResult, n)
	parallel.For(n, func(i int) {
		r, err := classify(i)
		if err != nil {
			c.logger.Warn("batch item failed", "item", i, "error", err)
		}
		results[i] = BatchResult{Result: r, Err: err}
	}, c.batch)
	return results
}

// ClassifyLine segments a line of glyphs and classifies each one, left to
// right. It returns the concatenated labels and the per-glyph results.
func (c *Classifier) ClassifyLine(img image.Image) (string, []Result, error) {
	segments, err := c.norm.Segment(img)
	if err != nil {
		return "", nil, err
	}

	results := make([]Result, len(segments))
	var text strings.Builder
	for i, seg := range segments {
		r, err := c.Classify(seg)
		if err != nil {
			return "", nil, fmt.Errorf("glyph %d of %d: %w", i+1, len(segments), err)
		}
		results[i] = r
		text.WriteString(r.Label)
	}
	c.logger.Debug("classified line", "glyphs", len(results), "text", text.String())
	return text.String(), results, nil
}

// Recognize returns the text of img: the labels of a line of glyphs when
// the image is wide, the label of a single glyph otherwise.
func (c *Classifier) Recognize(img image.Image) (string, error) {
	if c.norm.IsWide(img) {
		text, _, err := c.ClassifyLine(img)
		return text, err
	}
	r, err := c.Classify(img)
	if err != nil {
		return "", err
	}
	return r.Label, nil
}

// Labels returns the label table.
func (c *Classifier) Labels() []string {
	return c.eng.Labels()
}

// Dim returns the side of the normalized glyph.
func (c *Classifier) Dim() int {
	return c.norm.Dim()
}

// Normalizer returns the classifier's normalizer.
func (c *Classifier) Normalizer() *glyph.Normalizer {
	return c.norm
}

// Engine returns the classifier's engine.
func (c *Classifier) Engine() *engine.Engine {
	return c.eng
}
