package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func record(h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestFailWithFillsMessage(t *testing.T) {
	w, body := record(func(c *gin.Context) {
		FailWith(c, http.StatusBadGateway, &ErrorBody{Code: ErrBackendUnreachable})
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if body.Error.Message != GetMessage(ErrBackendUnreachable) {
		t.Errorf("message = %q", body.Error.Message)
	}
	if body.Metadata.RequestID != "req-1" {
		t.Errorf("request id = %q", body.Metadata.RequestID)
	}
}

func TestAbortFailCarriesRedirect(t *testing.T) {
	_, body := record(func(c *gin.Context) {
		AbortFail(c, http.StatusUnauthorized, ErrSessionRequired, "/login")
	})
	if body.Error == nil || body.Error.Redirect != "/login" || body.Error.Code != ErrSessionRequired {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestEveryCodeHasMessage(t *testing.T) {
	codes := []ErrCode{
		ErrInvalidCredentials, ErrSessionRequired, ErrSessionExpired, ErrTokenMissing,
		ErrForbidden, ErrAdminAccessOnly, ErrUserAccessOnly,
		ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrInvalidFilter, ErrPageOutOfRange,
		ErrNotFound, ErrProfileNotFound, ErrBackendRejected, ErrBackendUnreachable, ErrStaleSession,
		ErrExamIncomplete, ErrExamNotInProgress, ErrExamDisqualified, ErrExamGenerateFailed,
		ErrExamLoadFailed, ErrExamSubmitFailed, ErrRateLimitExceeded, ErrInternal,
	}
	fallback := GetMessage("UNKNOWN")
	for _, code := range codes {
		if GetMessage(code) == fallback {
			t.Errorf("%s has no message", code)
		}
	}
}
