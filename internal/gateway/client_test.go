package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	gen     uint64
	cleared int
}

func (f *fakeCreds) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeCreds) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.gen++
	f.cleared++
	return nil
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *fakeCreds) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	creds := &fakeCreds{token: "tok"}
	return New(srv.URL, 5*time.Second, creds, zerolog.Nop()), creds
}

func TestGetExamUnwrapsEnvelopeAndSendsBearer(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exam/e1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"data":{"_id":"e1","questions":[{"type":"mcq","question":"Q","options":["A","B"],"correctAnswer":"A"}]}}`))
	})

	exam, err := c.GetExam(context.Background(), "e1")
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if exam.ID != "e1" || len(exam.Questions) != 1 || exam.Questions[0].CorrectAnswer.Text != "A" {
		t.Errorf("exam = %+v", exam)
	}
}

func TestDecodeWithoutEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answers":{"0":"A"},"percentage":80}`))
	})
	res, err := c.GetResult(context.Background(), "e1")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if res.Percentage == nil || *res.Percentage != 80 || res.Answers["0"].Text != "A" {
		t.Errorf("result = %+v", res)
	}
}

func TestLoginTokenLocations(t *testing.T) {
	for name, body := range map[string]string{
		"nested": `{"data":{"token":"abc"}}`,
		"flat":   `{"token":"abc"}`,
		"none":   `{"message":"ok"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var got map[string]any
				_ = json.NewDecoder(r.Body).Decode(&got)
				if _, ok := got["remember"]; ok {
					t.Error("remember leaked to backend")
				}
				_, _ = w.Write([]byte(body))
			})
			token, err := c.Login(context.Background(), "a@b.co", "pw", "")
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			want := "abc"
			if name == "none" {
				want = ""
			}
			if token != want {
				t.Errorf("token = %q, want %q", token, want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		call     func(*Client) error
		kind     Kind
		redirect string
	}{
		{"unauthorized clears", 401, `{"message":"expired"}`, func(c *Client) error {
			_, err := c.GetExam(context.Background(), "e1")
			return err
		}, KindAuth, "/login"},
		{"primary not found", 404, `{"message":"missing"}`, func(c *Client) error {
			_, err := c.GetExam(context.Background(), "e1")
			return err
		}, KindRedirect, "/error/404"},
		{"form field errors", 400, `{"message":"bad","errors":{"email":"taken"}}`, func(c *Client) error {
			_, err := c.CreateCandidate(context.Background(), model.CandidateForm{})
			return err
		}, KindValidation, ""},
		{"form plain error", 500, `{"error":"boom"}`, func(c *Client) error {
			_, err := c.CreateCandidate(context.Background(), model.CandidateForm{})
			return err
		}, KindInline, ""},
		{"conflict", 409, `{"message":"dup"}`, func(c *Client) error {
			_, err := c.GetExam(context.Background(), "e1")
			return err
		}, KindInline, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			err := tc.call(c)
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if ge.Kind != tc.kind {
				t.Errorf("kind = %v, want %v", ge.Kind, tc.kind)
			}
			if ge.Redirect() != tc.redirect {
				t.Errorf("redirect = %q, want %q", ge.Redirect(), tc.redirect)
			}
			if (tc.kind == KindAuth) != (creds.cleared > 0) {
				t.Errorf("cleared = %d for kind %v", creds.cleared, tc.kind)
			}
			if ge.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second, &fakeCreds{}, zerolog.Nop())
	_, err := c.GetExam(context.Background(), "e1")
	if KindOf(err) != KindNetwork {
		t.Errorf("kind = %v, want network", KindOf(err))
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	creds := &fakeCreds{token: "tok"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// logout happens while the request is in flight
		_ = creds.Clear()
		_, _ = w.Write([]byte(`{"data":{"_id":"e1"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, creds, zerolog.Nop())
	_, err := c.GetExam(context.Background(), "e1")
	if !IsStale(err) {
		t.Errorf("err = %v, want ErrStaleSession", err)
	}
}

func TestGenerateExam(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body model.GenerateExamRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/exam/generate" || body.CandidateID != "c1" {
			t.Errorf("path=%s body=%+v", r.URL.Path, body)
		}
		_, _ = w.Write([]byte(`{"data":{"_id":"e42"}}`))
	})
	id, err := c.GenerateExam(context.Background(), "c1")
	if err != nil || id != "e42" {
		t.Errorf("GenerateExam = %q, %v", id, err)
	}
}
