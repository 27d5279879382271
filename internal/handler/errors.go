package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

// writeError maps service errors onto response codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrSnapshotUnavailable):
		response.Unavailable(c, err.Error())
	case errors.Is(err, service.ErrInvalidParameter):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrRegenerationInProgress):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, err.Error())
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		_ = c.Error(err)
		response.InternalError(c, err.Error())
	}
}
