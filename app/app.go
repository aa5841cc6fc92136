// Package app assembles the prediction pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"cyberlaw-backend/classifier"
	"cyberlaw-backend/config"
	"cyberlaw-backend/llm"
	"cyberlaw-backend/metrics"
	"cyberlaw-backend/report"
	"cyberlaw-backend/repository"
	"cyberlaw-backend/service"
	"cyberlaw-backend/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App holds the long-lived components shared by every request. The model
// and law table are read-only once built.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Store       storage.Storage
	Laws        *repository.LawTable
	Model       *classifier.Model
	Renderer    *report.Renderer
	Procedures  *service.ProcedureService
	Predictions *service.PredictionService

	closers []io.Closer
}

// Build loads the law table, loads or trains the classifier and wires the
// services. reg may be nil to skip metrics registration.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}
	if reg != nil {
		a.Metrics = metrics.New(reg)
	}

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Store = store

	laws, err := LoadLaws(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Laws = laws

	model, trained, err := classifier.LoadOrTrain(ctx, store, cfg.ModelKey, laws.TrainingExamples(), classifier.Options{
		MaxIterations: cfg.ModelMaxIterations,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare classifier: %w", err)
	}
	if trained {
		a.Metrics.ModelTrained()
		logger.Info("classifier trained and cached", zap.String("key", cfg.ModelKey))
	} else {
		logger.Info("classifier loaded from cache", zap.String("key", cfg.ModelKey))
	}
	a.Model = model
	warnUnknownClasses(logger, model, laws)

	generator, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		// The service still answers; procedures degrade to an error message.
		logger.Warn("enrichment provider unavailable", zap.String("provider", string(cfg.LLM.Provider)), zap.Error(err))
	}
	if c, ok := generator.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	procOpts := []service.ProcedureServiceOption{
		service.ProcedureWithLogger(logger),
		service.ProcedureWithMetrics(a.Metrics),
	}
	if generator != nil {
		procOpts = append(procOpts, service.ProcedureWithGenerator(generator))
	}
	a.Procedures = service.NewProcedureService(procOpts...)

	a.Renderer = report.NewRenderer(store,
		report.WithKey(cfg.ReportKey),
		report.WithLogger(logger),
		report.WithMetrics(a.Metrics),
	)

	a.Predictions = service.NewPredictionService(
		service.PredictWithClassifier(model),
		service.PredictWithLaws(laws),
		service.PredictWithProcedures(a.Procedures),
		service.PredictWithRenderer(a.Renderer),
		service.PredictWithLogger(logger),
		service.PredictWithMetrics(a.Metrics),
		service.PredictWithEnrichmentTimeout(cfg.EnrichmentTimeout),
	)

	return a, nil
}

// Close releases provider clients
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.Logger.Warn("failed to close client", zap.Error(err))
		}
	}
}

// LoadLaws reads the reference table from the configured source
func LoadLaws(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.LawTable, error) {
	switch cfg.DataSource {
	case config.DataSourcePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		laws, err := repository.NewLawRepository(pool).LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("law table loaded", zap.String("source", "postgres"), zap.Int("rows", laws.Len()))
		return laws, nil
	default:
		laws, err := repository.LoadCSV(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		logger.Info("law table loaded", zap.String("source", cfg.DataFile), zap.Int("rows", laws.Len()))
		return laws, nil
	}
}

// OpenStore builds the artifact store without the rest of the pipeline
func OpenStore(cfg *config.Config) (storage.Storage, error) {
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// A cached model trained on an older table can predict sections the current
// table lacks; those requests fail with ErrModelInconsistency.
func warnUnknownClasses(logger *zap.Logger, model *classifier.Model, laws *repository.LawTable) {
	var missing []string
	for _, class := range model.Classes() {
		if _, err := laws.Lookup(class); err != nil {
			missing = append(missing, class)
		}
	}
	if len(missing) > 0 {
		logger.Warn("cached classifier predicts sections absent from the law table; retrain with lawctl train",
			zap.Strings("sections", missing))
	}
}
