package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/session"
)

const (
	// ContextKeyClaims is the Gin context key for the decoded session claims.
	ContextKeyClaims = "claims"
)

// LoginRoute is where unauthenticated requests are sent.
const LoginRoute = "/login"

// RequireSession rejects requests when no live token is stored. The claims
// only route the request; the backend still enforces access.
func RequireSession(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess.Token() == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRequired, LoginRoute)
			return
		}
		if !sess.IsAuthenticated() {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionExpired, LoginRoute)
			return
		}

		claims, err := sess.Claims()
		if err == nil {
			c.Set(ContextKeyClaims, claims)
		}
		c.Next()
	}
}

// RequireRole lets only sessions of role through. Others are pointed back
// at their own landing route.
func RequireRole(sess *session.Session, role model.Role) gin.HandlerFunc {
	code := response.ErrForbidden
	switch role {
	case model.RoleAdmin:
		code = response.ErrAdminAccessOnly
	case model.RoleUser:
		code = response.ErrUserAccessOnly
	}

	return func(c *gin.Context) {
		if !sess.IsAuthenticated() {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRequired, LoginRoute)
			return
		}
		if !sess.HasRole(role) {
			response.AbortFail(c, http.StatusForbidden, code, sess.Landing())
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the session claims from the Gin context.
func GetClaims(c *gin.Context) *session.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*session.Claims)
	if !ok {
		return nil
	}
	return claims
}
