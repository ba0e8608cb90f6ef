package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/response"
)

// SystemHandler serves health and the generic error page payload.
type SystemHandler struct{}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// ErrorPage godoc
// GET /api/v1/errors/:code
// Describes the generic error page the UI shows after a redirect.
func (h *SystemHandler) ErrorPage(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil || code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}
	response.Success(c, http.StatusOK, gin.H{
		"code":    code,
		"title":   errorTitle(code),
		"message": errorMessage(code),
		"actions": []string{"/", "back"},
	})
}

func errorTitle(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusNotFound:
		return "Page Not Found"
	case http.StatusInternalServerError:
		return "Server Error"
	default:
		return "Something Went Wrong"
	}
}

func errorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request could not be understood."
	case http.StatusNotFound:
		return "The page you are looking for does not exist."
	case http.StatusInternalServerError:
		return "Something went wrong on our end. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}
