package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/labwatch/labwatch-api/internal/models"
	"github.com/labwatch/labwatch-api/internal/service"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
	"github.com/labwatch/labwatch-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service. Sessions ride an
// httpOnly cookie so the dashboard never handles the raw token.
type AuthHandler struct {
	service    *service.AuthService
	cookieName string
	secure     bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, secure: secure}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password, issuing a session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, token, int(h.service.TokenTTL().Seconds()), "/", "", h.secure, true)

	response.JSON(c, http.StatusOK, models.LoginResponse{
		Message: "logged in successfully",
		User:    user.Info(),
	}, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Clears the session cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secure, true)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out successfully"}, nil)
}

// Me godoc
// @Summary Get current user
// @Description Returns the authenticated user's directory entry
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.Info(), nil)
}
