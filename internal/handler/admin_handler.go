package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/middleware"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

// AdminHandler handles regeneration requests
type AdminHandler struct {
	service *service.RegenerationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *service.RegenerationService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Regenerate rebuilds the snapshot synchronously
// POST /api/v1/admin/regenerate
func (h *AdminHandler) Regenerate(c *gin.Context) {
	log.Printf("[Admin] Regeneration requested by %s", middleware.CurrentUser(c))

	run, err := h.service.Regenerate(c.Request.Context(), models.TriggerManual)
	if err != nil {
		if run != nil && run.Status == models.RunStatusFailed {
			response.Error(c, 422, run.ErrorMessage)
			return
		}
		writeError(c, err)
		return
	}

	response.Success(c, run)
}

// ListRuns lists regeneration history
// GET /api/v1/admin/runs
func (h *AdminHandler) ListRuns(c *gin.Context) {
	var filter models.RunFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	runs, total, err := h.service.ListRuns(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"runs":  runs,
		"total": total,
	})
}
