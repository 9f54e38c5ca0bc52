package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ReportService generates inventory reports.
type ReportService interface {
	Generate(ctx context.Context) (models.InventoryReport, error)
}

// ReportHandler serves the admin reporting endpoints.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Latest returns a report computed from the current inventory.
func (h *ReportHandler) Latest(c *gin.Context) {
	report, err := h.svc.Generate(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to generate report", zap.Error(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
