package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/auth"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/middleware"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
)

// fail maps err onto the response envelope. inline is the code used for
// failures shown next to the triggering control.
func fail(c *gin.Context, err error, inline response.ErrCode) {
	var formErr *validator.Error
	var gwErr *gateway.Error

	switch {
	case errors.As(err, &formErr):
		response.FailWith(c, http.StatusBadRequest, &response.ErrorBody{
			Code:    response.ErrValidation,
			Message: formErr.Message,
			Fields:  formErr.Fields,
		})
	case errors.Is(err, gateway.ErrStaleSession):
		response.Fail(c, http.StatusConflict, response.ErrStaleSession)
	case errors.Is(err, session.ErrNoSession):
		response.FailWith(c, http.StatusUnauthorized, &response.ErrorBody{
			Code:     response.ErrSessionRequired,
			Redirect: middleware.LoginRoute,
		})
	case errors.Is(err, candidate.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, candidate.ErrPageOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrPageOutOfRange)
	case errors.Is(err, auth.ErrTokenMissing):
		response.Fail(c, http.StatusBadGateway, response.ErrTokenMissing)
	case errors.As(err, &gwErr):
		failGateway(c, gwErr, inline)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func failGateway(c *gin.Context, e *gateway.Error, inline response.ErrCode) {
	switch e.Kind {
	case gateway.KindAuth:
		response.FailWith(c, http.StatusUnauthorized, &response.ErrorBody{
			Code:     response.ErrSessionExpired,
			Redirect: e.Redirect(),
		})
	case gateway.KindValidation:
		response.FailWith(c, http.StatusBadRequest, &response.ErrorBody{
			Code:    response.ErrValidation,
			Message: e.Message,
			Fields:  e.Fields,
		})
	case gateway.KindRedirect:
		response.FailWith(c, e.Status, &response.ErrorBody{
			Code:     response.ErrBackendRejected,
			Message:  e.Message,
			Redirect: e.Redirect(),
		})
	case gateway.KindNetwork:
		response.Fail(c, http.StatusBadGateway, response.ErrBackendUnreachable)
	default:
		status := e.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		response.FailWith(c, status, &response.ErrorBody{Code: inline, Message: e.Message})
	}
}
