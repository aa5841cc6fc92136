package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers all routes. metricsHandler may be nil.
func NewRouter(h *PredictionHandler, logger *zap.Logger, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	r.POST("/predict", h.Predict)
	r.GET("/download_report", h.DownloadReport)
	r.GET("/sections", h.ListSections)

	return r
}
