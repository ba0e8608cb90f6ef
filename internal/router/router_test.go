package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/auth"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/config"
	"github.com/stemsi/candidate-portal/internal/exam"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/handler"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/proctor"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/result"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
	ws "github.com/stemsi/candidate-portal/internal/websocket"
)

func tokenFor(t *testing.T, role model.Role, email string) string {
	t.Helper()
	claims := session.Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

// fakeBackend is a minimal stand-in for the REST API.
type fakeBackend struct {
	t *testing.T

	mu          sync.Mutex
	submissions []map[string]any
	generateErr bool
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		var body struct{ Email string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		role := model.RoleUser
		if strings.HasPrefix(body.Email, "admin") {
			role = model.RoleAdmin
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": tokenFor(f.t, role, body.Email)}})
	case r.URL.Path == "/candidates" && r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"_id": "c1", "name": "Asha", "email": "asha@example.com", "gender": "Female", "experience": 3, "highestqualification": "B.Tech", "skills": []string{"Go"}},
				{"_id": "c2", "name": "Ravi", "email": "ravi@example.com", "gender": "Male", "experience": 7, "highestqualification": "M.Tech", "skills": []string{"Go", "SQL"}},
			},
			"meta": map[string]int{"total": 12},
		})
	case r.URL.Path == "/exam/generate":
		f.mu.Lock()
		refuse := f.generateErr
		f.mu.Unlock()
		if refuse {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"message": "cooldown"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"_id": "e1"})
	case r.URL.Path == "/exam/e1":
		json.NewEncoder(w).Encode(map[string]any{
			"_id":         "e1",
			"candidateId": "c2",
			"questions": []map[string]any{
				{"_id": "q1", "type": "mcq", "question": "2+2?", "options": []string{"3", "4"}, "correctAnswer": "4"},
			},
		})
	case r.URL.Path == "/exam/e1/submit":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.submissions = append(f.submissions, body)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "not found"})
	}
}

type portal struct {
	server  *httptest.Server
	backend *fakeBackend
	session *session.Session
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	fb := &fakeBackend{t: t}
	api := httptest.NewServer(fb)
	t.Cleanup(api.Close)

	log := zerolog.Nop()
	sess := session.New(session.NewMemoryBackend(), session.NewMemoryBackend())
	client := gateway.New(api.URL, 5*time.Second, sess, log)
	directory := candidate.NewDirectory(client, 10, log)

	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(auth.NewService(client, sess, log)),
		Candidate: handler.NewCandidateHandler(directory),
		Dashboard: handler.NewDashboardHandler(directory, client, sess, log),
		Result:    handler.NewResultHandler(result.NewViewer(client), client),
		WS: handler.NewWSHandler(client, exam.Options{
			Duration:  time.Hour,
			Detectors: []proctor.Detector{},
		}, log, nil),
		System: handler.NewSystemHandler(),
	}
	cfg := &config.Config{GinMode: gin.TestMode}
	srv := httptest.NewServer(SetupRouter(sess, handlers, cfg))
	t.Cleanup(srv.Close)

	return &portal{server: srv, backend: fb, session: sess}
}

func (p *portal) do(t *testing.T, method, path string, body any) (int, response.Response) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, p.server.URL+path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out response.Response
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (p *portal) login(t *testing.T, email string) string {
	t.Helper()
	status, body := p.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": email, "password": "secret1"})
	if status != http.StatusOK {
		t.Fatalf("login status = %d, error = %+v", status, body.Error)
	}
	data := body.Data.(map[string]any)
	return data["redirect"].(string)
}

func TestLandingFollowsRole(t *testing.T) {
	p := newPortal(t)

	_, body := p.do(t, http.MethodGet, "/api/v1/landing", nil)
	if got := body.Data.(map[string]any)["redirect"]; got != "/login" {
		t.Fatalf("anonymous landing = %v", got)
	}

	if got := p.login(t, "admin@example.com"); got != "/" {
		t.Errorf("admin landing = %q", got)
	}
	if got := p.login(t, "ravi@example.com"); got != "/exam-dashboard" {
		t.Errorf("user landing = %q", got)
	}
}

func TestCandidateListFiltersLoadedPage(t *testing.T) {
	p := newPortal(t)
	p.login(t, "admin@example.com")

	status, body := p.do(t, http.MethodGet, "/api/v1/candidates?page=1&expMin=5", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, body.Error)
	}
	list := body.Data.(map[string]any)["candidates"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["name"] != "Ravi" {
		t.Errorf("filtered list = %v", list)
	}
	if body.Pagination == nil || body.Pagination.TotalPages != 2 || body.Pagination.TotalItems != 12 {
		t.Errorf("pagination = %+v", body.Pagination)
	}

	status, body = p.do(t, http.MethodGet, "/api/v1/candidates?expMin=9&expMax=2", nil)
	if status != http.StatusBadRequest || body.Error.Fields["experience"] == "" {
		t.Errorf("inverted range: status = %d, error = %+v", status, body.Error)
	}
}

func TestCandidateListBlankFilterFieldsMatchAll(t *testing.T) {
	p := newPortal(t)
	p.login(t, "admin@example.com")

	status, body := p.do(t, http.MethodGet, "/api/v1/candidates?page=1&search=&gender=&qualification=&expMin=&expMax=&skills=", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", status, body.Error)
	}
	data := body.Data.(map[string]any)
	if list := data["candidates"].([]any); len(list) != 2 {
		t.Errorf("candidates = %d, want 2", len(list))
	}
	if data["filtered"] != false {
		t.Errorf("filtered = %v", data["filtered"])
	}
}

func TestCandidateUpdateValidatesBeforeLoading(t *testing.T) {
	p := newPortal(t)
	p.login(t, "admin@example.com")

	status, body := p.do(t, http.MethodPut, "/api/v1/candidates/c1", map[string]any{"name": "A", "phone": "123"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, error = %+v", status, body.Error)
	}
	if body.Error.Code != response.ErrValidation || body.Error.Fields["phone"] == "" || body.Error.Redirect != "" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestCandidateCreateRejectsBadPhone(t *testing.T) {
	p := newPortal(t)
	p.login(t, "admin@example.com")

	status, body := p.do(t, http.MethodPost, "/api/v1/candidates", map[string]any{
		"name":                 "Asha",
		"phone":                "9848012345",
		"email":                "asha@example.com",
		"gender":               "Female",
		"experience":           3,
		"highestqualification": "B.Tech",
		"skills":               "Go, SQL",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if body.Error.Code != response.ErrValidation || body.Error.Fields["phone"] == "" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestRoleGuards(t *testing.T) {
	p := newPortal(t)

	status, body := p.do(t, http.MethodGet, "/api/v1/candidates", nil)
	if status != http.StatusUnauthorized || body.Error.Redirect != "/login" {
		t.Errorf("anonymous: status = %d, error = %+v", status, body.Error)
	}

	p.login(t, "ravi@example.com")
	status, body = p.do(t, http.MethodGet, "/api/v1/candidates", nil)
	if status != http.StatusForbidden || body.Error.Redirect != "/exam-dashboard" {
		t.Errorf("user: status = %d, error = %+v", status, body.Error)
	}
}

func TestDashboardStartExam(t *testing.T) {
	p := newPortal(t)
	p.login(t, "ravi@example.com")

	status, body := p.do(t, http.MethodPost, "/api/v1/dashboard/exams", nil)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, error = %+v", status, body.Error)
	}
	if got := body.Data.(map[string]any)["redirect"]; got != "/exam/e1" {
		t.Errorf("redirect = %v", got)
	}

	p.backend.mu.Lock()
	p.backend.generateErr = true
	p.backend.mu.Unlock()
	status, body = p.do(t, http.MethodPost, "/api/v1/dashboard/exams", nil)
	if status != http.StatusConflict {
		t.Fatalf("status = %d", status)
	}
	if body.Error.Message != "You can only attempt the exam once every 10 days." {
		t.Errorf("message = %q", body.Error.Message)
	}
}

func TestErrorPage(t *testing.T) {
	p := newPortal(t)
	_, body := p.do(t, http.MethodGet, "/api/v1/errors/404", nil)
	data := body.Data.(map[string]any)
	if data["title"] != "Page Not Found" {
		t.Errorf("title = %v", data["title"])
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(ws.Frame) bool) ws.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var f ws.Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func TestExamStreamAnswerAndSubmit(t *testing.T) {
	p := newPortal(t)
	p.login(t, "ravi@example.com")

	url := "ws" + strings.TrimPrefix(p.server.URL, "http") + "/ws/v1/exams/e1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readUntil(t, conn, func(f ws.Frame) bool {
		return f.Event == ws.EventState && f.Snapshot != nil && f.Snapshot.State == exam.StateInProgress
	})

	conn.WriteJSON(ws.Request{Action: ws.ActionSubmit})
	f := readUntil(t, conn, func(f ws.Frame) bool { return f.Action == ws.ActionSubmit })
	if f.Event != ws.EventError {
		t.Fatalf("incomplete submit answered with %q", f.Event)
	}

	idx := 0
	conn.WriteJSON(ws.Request{Action: ws.ActionAnswer, Index: &idx, Value: "4"})
	f = readUntil(t, conn, func(f ws.Frame) bool { return f.Action == ws.ActionAnswer })
	if f.Event != ws.EventAck || f.Snapshot.Answered != 1 {
		t.Fatalf("answer frame = %+v", f)
	}

	conn.WriteJSON(ws.Request{Action: ws.ActionSubmit})
	f = readUntil(t, conn, func(f ws.Frame) bool { return f.Event == ws.EventNavigate })
	if f.Target != "/exam/e1/result" {
		t.Errorf("navigate target = %q", f.Target)
	}

	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	if len(p.backend.submissions) != 1 {
		t.Fatalf("submissions = %v", p.backend.submissions)
	}
	answers, _ := p.backend.submissions[0]["answers"].(map[string]any)
	if answers["0"] != "4" {
		t.Errorf("submitted answers = %v", answers)
	}
}
