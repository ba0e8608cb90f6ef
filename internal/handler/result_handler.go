package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/result"
)

// SummaryFetcher reads the backend's proctoring-log aggregate for an exam.
type SummaryFetcher interface {
	ProctoringSummary(ctx context.Context, examID string) (*model.ProctoringSummary, error)
}

// ResultHandler serves graded reports and proctoring summaries.
type ResultHandler struct {
	viewer  *result.Viewer
	summary SummaryFetcher
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(viewer *result.Viewer, summary SummaryFetcher) *ResultHandler {
	return &ResultHandler{viewer: viewer, summary: summary}
}

// GetResult godoc
// GET /api/v1/exams/:exam_id/result
func (h *ResultHandler) GetResult(c *gin.Context) {
	report, err := h.viewer.Load(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		fail(c, err, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}

// GetProctoringSummary godoc
// GET /api/v1/exams/:exam_id/proctoring
func (h *ResultHandler) GetProctoringSummary(c *gin.Context) {
	summary, err := h.summary.ProctoringSummary(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		fail(c, err, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}
