package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cyberlaw-backend/models"
	"cyberlaw-backend/service"
	"cyberlaw-backend/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const reportFilename = "cyber_law_report.pdf"

// Predictor runs the prediction pipeline and renders its report
type Predictor interface {
	PredictAndRender(ctx context.Context, rawQuery string) (*service.PredictOutcome, error)
}

// ReportSource opens the most recently rendered report
type ReportSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SectionLister lists the reference table
type SectionLister interface {
	Entries() []models.LawEntry
}

// PredictionHandler handles HTTP requests for predictions and reports
type PredictionHandler struct {
	predictor Predictor
	reports   ReportSource
	sections  SectionLister
	logger    *zap.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictor Predictor, reports ReportSource, sections SectionLister, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{
		predictor: predictor,
		reports:   reports,
		sections:  sections,
		logger:    logger,
	}
}

// PredictRequest represents the request body for a prediction
type PredictRequest struct {
	Query string `json:"query"`
}

// Predict handles POST /predict
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			errorResponse(c, http.StatusBadRequest, "EMPTY_QUERY", "No query provided")
			return
		}
		errorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	outcome, err := h.predictor.PredictAndRender(c.Request.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			errorResponse(c, http.StatusBadRequest, "EMPTY_QUERY", "No query provided")
		case errors.Is(err, service.ErrModelInconsistency):
			h.logger.Error("prediction failed", zap.Error(err), zap.String("request_id", requestID(c)))
			errorResponse(c, http.StatusInternalServerError, "MODEL_INCONSISTENCY", "Predicted section is missing from the law table")
		case errors.Is(err, service.ErrReportFailed):
			h.logger.Error("report failed", zap.Error(err), zap.String("request_id", requestID(c)))
			errorResponse(c, http.StatusInternalServerError, "REPORT_FAILED", "Failed to generate report")
		default:
			h.logger.Error("prediction failed", zap.Error(err), zap.String("request_id", requestID(c)))
			errorResponse(c, http.StatusInternalServerError, "PREDICTION_FAILED", "Failed to process query")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Prediction successful",
		"data":    outcome.Result,
		"pdf_url": outcome.ReportPath,
	})
}

// DownloadReport handles GET /download_report
func (h *PredictionHandler) DownloadReport(c *gin.Context) {
	reader, err := h.reports.Open(c.Request.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found")
			return
		}
		h.logger.Error("failed to open report", zap.Error(err), zap.String("request_id", requestID(c)))
		errorResponse(c, http.StatusInternalServerError, "REPORT_UNAVAILABLE", "Failed to read report")
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, map[string]string{
		"Content-Disposition": `attachment; filename="` + reportFilename + `"`,
	})
}

// ListSections handles GET /sections
func (h *PredictionHandler) ListSections(c *gin.Context) {
	entries := h.sections.Entries()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"count":   len(entries),
	})
}

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
