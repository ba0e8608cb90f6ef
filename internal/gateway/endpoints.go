package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stemsi/candidate-portal/internal/model"
)

// ─── Auth ──────────────────────────────────────────────────────────────

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	return c.call(ctx, request{method: http.MethodPost, path: "/auth/register", body: req}, nil)
}

// Login returns the issued token, which the backend places at data.token or
// token. An empty string means the reply carried none.
func (c *Client) Login(ctx context.Context, email, password string, role model.Role) (string, error) {
	body := struct {
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role,omitempty"`
	}{email, password, role}

	raw, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body})
	if err != nil {
		return "", err
	}
	var reply struct {
		Token string `json:"token"`
		Data  struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("decode login reply: %w", err)
	}
	if reply.Data.Token != "" {
		return reply.Data.Token, nil
	}
	return reply.Token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, request{method: http.MethodPost, path: "/auth/logout", auth: true}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.call(ctx, request{method: http.MethodPost, path: "/auth/forgot-password", body: body}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"password": password}
	return c.call(ctx, request{
		method: http.MethodPost,
		path:   "/auth/reset-password/" + url.PathEscape(token),
		body:   body,
	}, nil)
}

// ─── Candidates ────────────────────────────────────────────────────────

func (c *Client) ListCandidates(ctx context.Context, page, limit int) (*model.CandidatePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out model.CandidatePage
	err := c.call(ctx, request{method: http.MethodGet, path: "/candidates", query: q, auth: true, primary: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	var out model.Candidate
	err := c.call(ctx, request{method: http.MethodGet, path: "/candidates/" + url.PathEscape(id), auth: true, primary: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCandidate(ctx context.Context, form model.CandidateForm) (*model.Candidate, error) {
	var out model.Candidate
	err := c.call(ctx, request{method: http.MethodPost, path: "/candidates", body: form, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCandidate(ctx context.Context, id string, form model.CandidateForm) (*model.Candidate, error) {
	var out model.Candidate
	err := c.call(ctx, request{method: http.MethodPut, path: "/candidates/" + url.PathEscape(id), body: form, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCandidate(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: "/candidates/" + url.PathEscape(id), auth: true}, nil)
}

// ─── Exams ─────────────────────────────────────────────────────────────

// GenerateExam asks the backend for a new exam and returns its id.
func (c *Client) GenerateExam(ctx context.Context, candidateID string) (string, error) {
	var out struct {
		ID string `json:"_id"`
	}
	body := model.GenerateExamRequest{CandidateID: candidateID}
	if err := c.call(ctx, request{method: http.MethodPost, path: "/exam/generate", body: body, auth: true}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &Error{Kind: KindInline, Status: http.StatusOK, Message: "exam id missing from generate reply"}
	}
	return out.ID, nil
}

func (c *Client) GetExam(ctx context.Context, examID string) (*model.Exam, error) {
	var out model.Exam
	err := c.call(ctx, request{method: http.MethodGet, path: "/exam/" + url.PathEscape(examID), auth: true, primary: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitExam(ctx context.Context, examID string, answers model.AnswerSet) error {
	body := model.SubmitExamRequest{Answers: answers}
	return c.call(ctx, request{method: http.MethodPost, path: "/exam/" + url.PathEscape(examID) + "/submit", body: body, auth: true}, nil)
}

func (c *Client) GetResult(ctx context.Context, examID string) (*model.GradedResult, error) {
	var out model.GradedResult
	err := c.call(ctx, request{method: http.MethodGet, path: "/exam/" + url.PathEscape(examID) + "/result", auth: true, primary: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Proctoring ────────────────────────────────────────────────────────

func (c *Client) LogProctoring(ctx context.Context, entry model.ProctoringLog) error {
	return c.call(ctx, request{method: http.MethodPost, path: "/proctoring/log", body: entry, auth: true}, nil)
}

func (c *Client) ProctoringSummary(ctx context.Context, examID string) (*model.ProctoringSummary, error) {
	var out model.ProctoringSummary
	err := c.call(ctx, request{method: http.MethodGet, path: "/proctoring/" + url.PathEscape(examID), auth: true, primary: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
