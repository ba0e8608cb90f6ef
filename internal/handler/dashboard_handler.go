package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/session"
)

// ExamGenerator asks the backend for a fresh exam.
type ExamGenerator interface {
	GenerateExam(ctx context.Context, candidateID string) (string, error)
}

// DashboardHandler serves the candidate's exam dashboard.
type DashboardHandler struct {
	directory *candidate.Directory
	generator ExamGenerator
	session   *session.Session
	log       zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(directory *candidate.Directory, generator ExamGenerator, sess *session.Session, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		directory: directory,
		generator: generator,
		session:   sess,
		log:       log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// profile resolves the signed-in candidate's record: by the candidateId
// claim when present, otherwise by scanning for the email claim.
func (h *DashboardHandler) profile(ctx context.Context) (*model.Candidate, error) {
	claims, err := h.session.Claims()
	if err != nil {
		return nil, err
	}
	if claims.CandidateID != "" {
		return h.directory.Get(ctx, claims.CandidateID)
	}
	return h.directory.FindByEmail(ctx, claims.Email)
}

// GetDashboard godoc
// GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	profile, err := h.profile(c.Request.Context())
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrProfileNotFound)
			return
		}
		fail(c, err, response.ErrProfileNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"candidate": profile})
}

// StartExam godoc
// POST /api/v1/dashboard/exams
// Generates a new exam for the signed-in candidate and points the UI at it.
func (h *DashboardHandler) StartExam(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.profile(ctx)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrProfileNotFound)
			return
		}
		fail(c, err, response.ErrProfileNotFound)
		return
	}

	examID, err := h.generator.GenerateExam(ctx, profile.ID)
	if err != nil {
		h.log.Warn().Err(err).Str("candidate_id", profile.ID).Msg("Exam generation failed")
		switch gateway.KindOf(err) {
		case gateway.KindAuth, gateway.KindNetwork:
			fail(c, err, response.ErrExamGenerateFailed)
		default:
			response.Fail(c, http.StatusConflict, response.ErrExamGenerateFailed)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"examId":   examID,
		"redirect": "/exam/" + examID,
	})
}
