package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ams/backend/internal/infrastructure/auth"
	"github.com/ams/backend/internal/interfaces/http/dto"
)

// AuthHandler handles token refresh. Token issuance happens in the
// identity provider fronting this service; this API only re-mints pairs
// from a valid refresh token.
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{jwtService: jwtService}
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	Username     string `json:"username"`
}

// Refresh exchanges a valid refresh token for a new token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.refreshError(c, err)
		return
	}

	username := req.Username
	if username == "" {
		username = claims.Username
	}

	pair, err := h.jwtService.RefreshTokenPair(req.RefreshToken, username, claims.Roles)
	if err != nil {
		h.refreshError(c, err)
		return
	}
	h.Success(c, pair)
}

func (h *AuthHandler) refreshError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		h.Error(c, 401, dto.ErrCodeTokenExpired, "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		h.Error(c, 401, dto.ErrCodeTokenInvalid, "Refresh limit reached, please sign in again")
	default:
		h.Error(c, 401, dto.ErrCodeTokenInvalid, "Invalid refresh token")
	}
}
