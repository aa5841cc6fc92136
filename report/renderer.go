// Package report renders prediction results as PDF documents.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cyberlaw-backend/metrics"
	"cyberlaw-backend/models"
	"cyberlaw-backend/storage"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// DefaultReportKey is the single location every render overwrites
const DefaultReportKey = "static/cyber_law_report.pdf"

const (
	title        = "Cyber Law Report"
	fontFamily   = "Arial"
	fontSize     = 12
	lineHeight   = 10
	pageMargin   = 15
	titleSpacing = 10
)

// Renderer writes reports to a fixed key of an artifact store. Concurrent
// renders are serialized; the last write wins.
type Renderer struct {
	store    storage.Storage
	key      string
	compress bool
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu sync.Mutex
}

// Option configures a Renderer
type Option func(*Renderer)

// WithKey overrides the report key
func WithKey(key string) Option {
	return func(r *Renderer) {
		if key != "" {
			r.key = key
		}
	}
}

// WithCompression toggles content stream compression
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// NewRenderer creates a renderer backed by store
func NewRenderer(store storage.Storage, opts ...Option) *Renderer {
	r := &Renderer{
		store:    store,
		key:      DefaultReportKey,
		compress: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the storage key reports are written to
func (r *Renderer) Key() string {
	return r.key
}

// Render lays out result and stores it, returning the stored location.
func (r *Renderer) Render(ctx context.Context, result *models.PredictionResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil prediction result")
	}

	pdf := r.build(result)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	location, err := r.store.Put(ctx, r.key, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to store report: %w", err)
	}

	r.metrics.ReportRendered()
	r.logger.Debug("report rendered", zap.String("location", location), zap.String("section", result.Section))
	return location, nil
}

// Open returns the most recently rendered report. The error wraps
// storage.ErrNotFound when nothing has been rendered yet.
func (r *Renderer) Open(ctx context.Context) (io.ReadCloser, error) {
	rc, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("report not yet generated: %w", err)
		}
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	return rc, nil
}

func (r *Renderer) build(result *models.PredictionResult) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)

	// Core fonts are cp1252; map UTF-8 input onto it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.CellFormat(0, lineHeight, title, "", 1, "C", false, 0, "")
	pdf.Ln(titleSpacing)

	for _, f := range result.Fields() {
		pdf.MultiCell(0, lineHeight, tr(f.Label+": "+f.Value), "", "", false)
		pdf.Ln(-1)
	}
	return pdf
}
