// Package loader is the file-system boundary of glyphnet: it reads model
// files (legacy or v2, auto-detected) and glyph images, writes normalized
// glyphs, and assembles a ready Classifier from a model path and a
// configuration.
//
// Supported image formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
//
// Example:
//
//	cfg, err := config.Load("glyphnet.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := loader.LoadClassifier("model.bin", cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img, _, err := loader.ReadImage("glyph.png")
//	...
//	result, err := c.Classify(img)
package loader
