package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cyberlaw-backend/llm"
	"cyberlaw-backend/metrics"

	"go.uber.org/zap"
)

// ProcedureNotFound is returned when the provider answers with no text
const ProcedureNotFound = "No procedure found."

var errNoGenerator = errors.New("procedure generator not configured")

// ProcedureService asks a text-generation provider for the legal procedure
// that applies to a law section.
type ProcedureService struct {
	generator llm.Generator
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// ProcedureServiceOption is a functional option for ProcedureService
type ProcedureServiceOption func(*ProcedureService)

// ProcedureWithGenerator sets the text generator
func ProcedureWithGenerator(g llm.Generator) ProcedureServiceOption {
	return func(s *ProcedureService) {
		s.generator = g
	}
}

// ProcedureWithLogger sets the logger
func ProcedureWithLogger(logger *zap.Logger) ProcedureServiceOption {
	return func(s *ProcedureService) {
		s.logger = logger
	}
}

// ProcedureWithMetrics sets the metrics sink
func ProcedureWithMetrics(m *metrics.Metrics) ProcedureServiceOption {
	return func(s *ProcedureService) {
		s.metrics = m
	}
}

// NewProcedureService creates a new procedure service
func NewProcedureService(opts ...ProcedureServiceOption) *ProcedureService {
	s := &ProcedureService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcedurePrompt builds the question sent to the provider for a section
func ProcedurePrompt(section string) string {
	return fmt.Sprintf("What are the legal procedures for %s under Indian Cyber Law?", section)
}

// FetchProcedure returns procedure text for section. It never fails: provider
// errors are folded into the returned text.
func (s *ProcedureService) FetchProcedure(ctx context.Context, section string) (procedure string) {
	defer func() {
		if r := recover(); r != nil {
			procedure = s.degrade(section, fmt.Errorf("provider panic: %v", r))
		}
	}()

	if s.generator == nil {
		return s.degrade(section, errNoGenerator)
	}

	text, err := s.generator.Generate(ctx, ProcedurePrompt(section))
	if err != nil {
		return s.degrade(section, err)
	}
	if strings.TrimSpace(text) == "" {
		return ProcedureNotFound
	}
	return text
}

func (s *ProcedureService) degrade(section string, err error) string {
	s.logger.Warn("procedure enrichment failed", zap.String("section", section), zap.Error(err))
	s.metrics.EnrichmentFailed()
	return fmt.Sprintf("Error retrieving procedure: %v", err)
}
