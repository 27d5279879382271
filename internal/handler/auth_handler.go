package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/pkg/response"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler handles login requests
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login issues a token
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}
