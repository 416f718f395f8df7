package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type InsightsHandler struct {
	BaseHandler
	insightsService services.InsightsService
}

func NewInsightsHandler(insightsService services.InsightsService, logger utils.Logger) *InsightsHandler {
	return &InsightsHandler{
		BaseHandler:     NewBaseHandler(logger),
		insightsService: insightsService,
	}
}

// @Summary Patient quiz insights
// @Tags insights
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} models.PatientInsights
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/patients/{id}/insights [get]
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	insights, err := h.insightsService.GetPatientInsights(c.Request.Context(), identity.Sub, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, insights)
}

// ExportResults downloads the patient's quiz results as a spreadsheet
// @Summary Export quiz results
// @Tags insights
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Patient ID"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {file} binary
// @Router /api/patients/{id}/results/export [get]
func (h *InsightsHandler) ExportResults(c *gin.Context) {
	identity := mustIdentity(c)
	if identity == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	req := &models.ExportRequest{PatientID: id}
	var err error
	if req.DateFrom, err = parseTimeQuery(c, "from"); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	if req.DateTo, err = parseTimeQuery(c, "to"); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid to date", err)
		return
	}

	data, err := h.insightsService.ExportResults(c.Request.Context(), identity.Sub, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-results-%s-%s.xlsx", id, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
