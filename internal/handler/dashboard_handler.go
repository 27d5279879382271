package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/export"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler handles HTTP requests for dashboard queries
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetFormula handles GET /api/v1/dsi/formula
func (h *DashboardHandler) GetFormula(c *gin.Context) {
	response.Success(c, h.service.Formula())
}

// GetNationalSummary handles GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetNationalSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(models.NationalKey)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetStressedDistricts handles GET /api/v1/dashboard/stressed-districts
func (h *DashboardHandler) GetStressedDistricts(c *gin.Context) {
	var filter models.StressedFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	districts, err := h.service.ListStressedDistricts(filter.Limit, filter.MinTier)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"districts": districts,
		"total":     len(districts),
	})
}

// GetDistrict handles GET /api/v1/districts/:state/:district
func (h *DashboardHandler) GetDistrict(c *gin.Context) {
	entry, err := h.service.GetScore(models.DistrictKey(c.Param("state"), c.Param("district")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, entry)
}

// GetDistrictForecast handles GET /api/v1/districts/:state/:district/forecast
func (h *DashboardHandler) GetDistrictForecast(c *gin.Context) {
	h.forecast(c, models.DistrictKey(c.Param("state"), c.Param("district")))
}

// GetStateSummary handles GET /api/v1/states/:state/summary
func (h *DashboardHandler) GetStateSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(models.Slug(c.Param("state")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetStateForecast handles GET /api/v1/states/:state/forecast
func (h *DashboardHandler) GetStateForecast(c *gin.Context) {
	h.forecast(c, models.StateKey(c.Param("state")))
}

// GetNationalForecast handles GET /api/v1/forecasts/national
func (h *DashboardHandler) GetNationalForecast(c *gin.Context) {
	h.forecast(c, models.NationalKey)
}

func (h *DashboardHandler) forecast(c *gin.Context, entity string) {
	series, err := h.service.GetForecast(entity)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, series)
}

// GetZones handles GET /api/v1/zones?type=blue|dez
func (h *DashboardHandler) GetZones(c *gin.Context) {
	var filter models.ZoneFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.Type == "" {
		filter.Type = models.ZoneBlue
	}

	districts, err := h.service.ListZones(filter.Type)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"type":      filter.Type,
		"districts": districts,
		"total":     len(districts),
	})
}

// GetCenters handles GET /api/v1/resources/centers
func (h *DashboardHandler) GetCenters(c *gin.Context) {
	var filter models.CenterFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	centers, err := h.service.ListCenters(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"centers": centers,
		"total":   len(centers),
	})
}

// GetReallocation handles GET /api/v1/resources/reallocation
func (h *DashboardHandler) GetReallocation(c *gin.Context) {
	var filter models.LimitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	recs, err := h.service.GetRecommendations(filter.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"recommendations": recs,
		"total":           len(recs),
	})
}

// GetNeeds handles GET /api/v1/resources/needs
func (h *DashboardHandler) GetNeeds(c *gin.Context) {
	var filter models.NeedsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	needs, err := h.service.GetNeeds(filter.Limit, filter.Priority)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"needs": needs,
		"total": len(needs),
	})
}

// GetAnomalies handles GET /api/v1/anomalies
func (h *DashboardHandler) GetAnomalies(c *gin.Context) {
	var filter models.LimitFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	anomalies, err := h.service.GetAnomalies(filter.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"anomalies": anomalies,
		"total":     len(anomalies),
	})
}

// GetSnapshot handles GET /api/v1/snapshot
func (h *DashboardHandler) GetSnapshot(c *gin.Context) {
	info, err := h.service.SnapshotInfo()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, info)
}

// ExportReport handles GET /api/v1/export/report.xlsx
func (h *DashboardHandler) ExportReport(c *gin.Context) {
	artifact, meta, err := h.service.Artifact()
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, artifact); err != nil {
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("sankhya_report_v%d.xlsx", meta.Version)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
