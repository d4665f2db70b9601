package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labwatch/labwatch-api/internal/models"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
	"github.com/labwatch/labwatch-api/pkg/export"
	"github.com/labwatch/labwatch-api/pkg/response"
)

type logQueryService interface {
	List(ctx context.Context, filter *models.LogFilter, claims *models.JWTClaims) ([]models.LogItem, *models.Pagination, error)
	ExportAll(ctx context.Context, filter *models.LogFilter, claims *models.JWTClaims) ([]models.LogItem, error)
	Dataset(items []models.LogItem) export.Dataset
	Actions() []string
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// LogHandler exposes the audit log listing and export endpoints.
type LogHandler struct {
	service logQueryService
	limits  models.FilterLimits
	csv     csvRenderer
	pdf     pdfRenderer
}

// NewLogHandler creates a new log handler.
func NewLogHandler(svc logQueryService, limits models.FilterLimits, csv csvRenderer, pdf pdfRenderer) *LogHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &LogHandler{service: svc, limits: limits, csv: csv, pdf: pdf}
}

// List godoc
// @Summary List logs
// @Description Filtered, sorted, paginated log listing
// @Tags Logs
// @Produce json
// @Param action query []string false "Action filter, repeatable; 'all' clears it"
// @Param userId query []string false "Owning user filter, repeatable; 'all' clears it"
// @Param startDate query string false "Range start (defaults to today 00:00)"
// @Param endDate query string false "Range end (defaults to today 23:59)"
// @Param statusCode query string false "Status code substring"
// @Param labnumber query string false "Lab number substring"
// @Param minTimeMs query int false "Minimum response time"
// @Param maxTimeMs query int false "Maximum response time"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sortBy query string false "timestamp, timeMs or action"
// @Param sortOrder query string false "none, asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /logs [get]
func (h *LogHandler) List(c *gin.Context) {
	filter, err := models.ParseLogFilter(c.Request.URL.Query(), h.limits, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Export godoc
// @Summary Export logs
// @Description Returns every matching log; page and limit are ignored
// @Tags Logs
// @Produce json
// @Param format query string false "json (default), csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /logs/export [get]
func (h *LogHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	switch format {
	case "json", "csv", "pdf":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid format value"))
		return
	}

	filter, err := models.ParseLogFilter(c.Request.URL.Query(), h.limits, true)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	items, err := h.service.ExportAll(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if format == "json" {
		response.JSON(c, http.StatusOK, items, nil)
		return
	}

	dataset := h.service.Dataset(items)
	filename := fmt.Sprintf("logs-%s", time.Now().Format("2006-01-02"))

	switch format {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, "Activity Log")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	}
}

// Actions godoc
// @Summary List known actions
// @Description Returns the configured action order for filter dropdowns
// @Tags Logs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /logs/actions [get]
func (h *LogHandler) Actions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Actions(), nil)
}
