// Package server exposes a Classifier over HTTP.
//
// Routes:
//
//	GET  /health    liveness probe
//	GET  /labels    label table and input size
//	POST /classify  classify an uploaded image (multipart field "image"
//	                or the raw request body)
//
// /classify accepts the query flags normalized (the upload already is a
// D×D normalized glyph), multi (force line recognition) and scores
// (include the score vector). Without multi, wide images are recognized
// as lines automatically.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/born-ml/glyphnet/internal/classifier"
	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/glyph"
	"github.com/born-ml/glyphnet/internal/loader"
	"github.com/gorilla/mux"
)

// Server serves one classifier.
type Server struct {
	clf    *classifier.Classifier
	logger *slog.Logger
	cfg    config.ServerConfig
	router *mux.Router
}

// New creates a server. A nil logger discards output.
func New(clf *classifier.Classifier, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		clf:    clf,
		logger: logger,
		cfg:    cfg,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/labels", s.labels).Methods(http.MethodGet)
	s.router.HandleFunc("/classify", s.classify).Methods(http.MethodPost)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type glyphResult struct {
	Label      string    `json:"label"`
	Index      int       `json:"index"`
	Confidence float32   `json:"confidence"`
	Scores     []float32 `json:"scores,omitempty"`
}

// classifyResponse always carries the recognized text. Single glyphs fill
// Result, lines fill Glyphs.
type classifyResponse struct {
	RequestID string        `json:"request_id"`
	Text      string        `json:"text"`
	Result    *glyphResult  `json:"result,omitempty"`
	Glyphs    []glyphResult `json:"glyphs,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "healthy",
		"request_id": requestIDFrom(r.Context()),
	})
}

func (s *Server) labels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": requestIDFrom(r.Context()),
		"labels":     s.clf.Labels(),
		"input_dim":  s.clf.Dim(),
	})
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	id := requestIDFrom(r.Context())
	q := r.URL.Query()
	normalized := queryFlag(q.Get("normalized"))
	multi := queryFlag(q.Get("multi"))
	withScores := queryFlag(q.Get("scores"))

	img, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp := classifyResponse{RequestID: id}
	switch {
	case normalized:
		res, err := s.clf.ClassifyNormalized(img)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Text = res.Label
		resp.Result = toGlyphResult(res, withScores)
	case multi || s.clf.Normalizer().IsWide(img):
		text, results, err := s.clf.ClassifyLine(img)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Text = text
		for _, res := range results {
			resp.Glyphs = append(resp.Glyphs, *toGlyphResult(res, withScores))
		}
	default:
		res, err := s.clf.Classify(img)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Text = res.Label
		resp.Result = toGlyphResult(res, withScores)
	}
	writeJSON(w, http.StatusOK, resp)
}

// readUpload decodes the image from the multipart field "image" or, for
// any other content type, from the raw body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var src io.Reader
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", loader.ErrUnsupportedImage, err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: multipart field \"image\": %v", loader.ErrUnsupportedImage, err)
		}
		defer file.Close()
		src = file
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		src = bytes.NewReader(body)
	}

	img, format, err := loader.DecodeImage(src, s.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("decoded upload",
		"request_id", requestIDFrom(r.Context()),
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
	)
	return img, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	id := requestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("classify failed", "request_id", id, "error", err)
	} else {
		s.logger.Info("classify rejected", "request_id", id, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"request_id": id,
		"error":      err.Error(),
	})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, loader.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, glyph.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loader.ErrUnsupportedImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func toGlyphResult(r classifier.Result, withScores bool) *glyphResult {
	g := &glyphResult{Label: r.Label, Index: r.Index, Confidence: r.Confidence}
	if withScores {
		g.Scores = r.Scores
	}
	return g
}

func queryFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
