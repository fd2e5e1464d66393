package handlers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/models"
	"github.com/dyslexiaaid/screening-service/internal/repositories"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportEvaluations downloads every evaluation record as CSV or XLSX.
// Optional filters: dyslexia_type, date_from, date_to (YYYY-MM-DD).
func (h *ExportHandler) ExportEvaluations(c *gin.Context) {
	format, err := services.ParseExportFormat(strings.ToLower(c.Query("format")))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, err := h.filters(c)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid export filter", nil, err.Error())
		return
	}
	h.LogRequest(c, "Exporting evaluations", "format", format)

	var buf bytes.Buffer
	if err := h.exportService.Write(c.Request.Context(), &buf, format, filters); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *ExportHandler) filters(c *gin.Context) (repositories.EvaluationFilters, error) {
	var filters repositories.EvaluationFilters

	if raw := c.Query("dyslexia_type"); raw != "" {
		subtype, err := models.ParseSubtype(raw)
		if err != nil {
			return filters, err
		}
		filters.Subtype = &subtype
	}

	from, err := parseDateQuery(c, "date_from")
	if err != nil {
		return filters, err
	}
	to, err := parseDateQuery(c, "date_to")
	if err != nil {
		return filters, err
	}
	if to != nil {
		endOfDay := to.Add(24*time.Hour - time.Nanosecond)
		to = &endOfDay
	}
	filters.DateFrom, filters.DateTo = from, to
	return filters, nil
}
