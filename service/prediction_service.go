package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cyberlaw-backend/metrics"
	"cyberlaw-backend/models"
	"cyberlaw-backend/textnorm"

	"go.uber.org/zap"
)

var (
	// ErrEmptyQuery is returned for a query that is blank after trimming
	ErrEmptyQuery = errors.New("no query provided")
	// ErrModelInconsistency is returned when the classifier predicts a section the law table lacks
	ErrModelInconsistency = errors.New("predicted section missing from law table")
	// ErrReportFailed is returned when the report could not be stored
	ErrReportFailed = errors.New("failed to render report")
)

// SectionClassifier maps normalized text to a section label
type SectionClassifier interface {
	Predict(normalizedText string) string
}

// LawLookup resolves a section label to its reference entry
type LawLookup interface {
	Lookup(section string) (models.LawEntry, error)
}

// ProcedureFetcher returns procedure text for a section and never fails
type ProcedureFetcher interface {
	FetchProcedure(ctx context.Context, section string) string
}

// ReportRenderer writes a result to the shared report location
type ReportRenderer interface {
	Render(ctx context.Context, result *models.PredictionResult) (string, error)
}

// PredictionService runs the query pipeline: normalize, classify, look up,
// enrich and optionally render.
type PredictionService struct {
	classifier        SectionClassifier
	laws              LawLookup
	procedures        ProcedureFetcher
	renderer          ReportRenderer
	logger            *zap.Logger
	metrics           *metrics.Metrics
	enrichmentTimeout time.Duration
}

// PredictionServiceOption is a functional option for PredictionService
type PredictionServiceOption func(*PredictionService)

// PredictWithClassifier sets the classifier
func PredictWithClassifier(c SectionClassifier) PredictionServiceOption {
	return func(s *PredictionService) {
		s.classifier = c
	}
}

// PredictWithLaws sets the law lookup
func PredictWithLaws(l LawLookup) PredictionServiceOption {
	return func(s *PredictionService) {
		s.laws = l
	}
}

// PredictWithProcedures sets the procedure fetcher
func PredictWithProcedures(p ProcedureFetcher) PredictionServiceOption {
	return func(s *PredictionService) {
		s.procedures = p
	}
}

// PredictWithRenderer sets the report renderer
func PredictWithRenderer(r ReportRenderer) PredictionServiceOption {
	return func(s *PredictionService) {
		s.renderer = r
	}
}

// PredictWithLogger sets the logger
func PredictWithLogger(logger *zap.Logger) PredictionServiceOption {
	return func(s *PredictionService) {
		s.logger = logger
	}
}

// PredictWithMetrics sets the metrics sink
func PredictWithMetrics(m *metrics.Metrics) PredictionServiceOption {
	return func(s *PredictionService) {
		s.metrics = m
	}
}

// PredictWithEnrichmentTimeout bounds the procedure lookup. Zero means no bound.
func PredictWithEnrichmentTimeout(d time.Duration) PredictionServiceOption {
	return func(s *PredictionService) {
		s.enrichmentTimeout = d
	}
}

// NewPredictionService creates a new prediction service
func NewPredictionService(opts ...PredictionServiceOption) *PredictionService {
	s := &PredictionService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictOutcome is a prediction plus the location of its rendered report
type PredictOutcome struct {
	Result     *models.PredictionResult
	ReportPath string
}

// Predict classifies rawQuery and assembles the enriched result
func (s *PredictionService) Predict(ctx context.Context, rawQuery string) (*models.PredictionResult, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, ErrEmptyQuery
	}
	if s.classifier == nil {
		return nil, fmt.Errorf("classifier not set")
	}
	if s.laws == nil {
		return nil, fmt.Errorf("law lookup not set")
	}

	start := time.Now()
	section := s.classifier.Predict(textnorm.Normalize(rawQuery))

	entry, err := s.laws.Lookup(section)
	if err != nil {
		s.logger.Error("classifier predicted unknown section", zap.String("section", section), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrModelInconsistency, err)
	}

	procedure := ProcedureNotFound
	if s.procedures != nil {
		enrichCtx := ctx
		if s.enrichmentTimeout > 0 {
			var cancel context.CancelFunc
			enrichCtx, cancel = context.WithTimeout(ctx, s.enrichmentTimeout)
			defer cancel()
		}
		procedure = s.procedures.FetchProcedure(enrichCtx, section)
	}

	s.metrics.ObservePrediction(section, time.Since(start))
	s.logger.Info("prediction complete",
		zap.String("section", section),
		zap.Duration("elapsed", time.Since(start)),
	)

	return models.NewPredictionResult(entry, procedure), nil
}

// PredictAndRender runs Predict and writes the report for its result
func (s *PredictionService) PredictAndRender(ctx context.Context, rawQuery string) (*PredictOutcome, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("%w: renderer not set", ErrReportFailed)
	}

	result, err := s.Predict(ctx, rawQuery)
	if err != nil {
		return nil, err
	}

	path, err := s.renderer.Render(ctx, result)
	if err != nil {
		s.logger.Error("report rendering failed", zap.String("section", result.Section), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}

	return &PredictOutcome{Result: result, ReportPath: path}, nil
}
