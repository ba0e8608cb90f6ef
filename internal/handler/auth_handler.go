package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/auth"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/middleware"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.Register(c.Request.Context(), req); err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message":  "Registration successful. Please log in.",
		"redirect": middleware.LoginRoute,
	})
}

// Login godoc
// POST /api/v1/auth/login
// Stores the token in the scope picked by "remember" and returns the
// role-routed landing page.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	landing, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindAuth {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		fail(c, err, response.ErrInvalidCredentials)
		return
	}

	claims, _ := h.authService.Session().Claims()
	response.Success(c, http.StatusOK, gin.H{
		"redirect": landing,
		"claims":   claims,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Always clears the local session, even when the backend call fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"redirect": middleware.LoginRoute})
}

// ForgotPassword godoc
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message": "If an account exists for that email, a reset link has been sent.",
	})
}

// ResetPassword godoc
// POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), c.Param("token"), req); err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message":  "Password reset successful. Please log in.",
		"redirect": middleware.LoginRoute,
	})
}

// Landing godoc
// GET /api/v1/landing
func (h *AuthHandler) Landing(c *gin.Context) {
	sess := h.authService.Session()
	data := gin.H{
		"redirect":      sess.Landing(),
		"authenticated": sess.IsAuthenticated(),
	}
	if claims, err := sess.Claims(); err == nil {
		data["claims"] = claims
	}
	response.Success(c, http.StatusOK, data)
}
