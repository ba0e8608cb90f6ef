package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/response"
	"github.com/stemsi/candidate-portal/internal/validator"
)

// CandidateHandler handles the admin candidate directory.
type CandidateHandler struct {
	directory *candidate.Directory
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(directory *candidate.Directory) *CandidateHandler {
	return &CandidateHandler{directory: directory}
}

// ListCandidates godoc
// GET /api/v1/candidates?page=&search=&gender=&qualification=&expMin=&expMax=&skills=
// Fetches one server page and filters it client-side. Pagination counts the
// unfiltered server total.
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrPageOutOfRange)
		return
	}

	var filter candidate.Filter
	if fields := validator.BindQuery(c, &filter); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidFilter, fields)
		return
	}
	// a blank field in a submitted filter form means unset, not zero
	if c.Query("expMin") == "" {
		filter.ExpMin = nil
	}
	if c.Query("expMax") == "" {
		filter.ExpMax = nil
	}

	result, err := h.directory.Page(c.Request.Context(), page, filter)
	if err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{
		"candidates": result.Candidates,
		"loaded":     result.Loaded,
		"filtered":   !filter.Empty(),
	}, &response.Pagination{
		Page:       result.Number,
		PerPage:    result.Size,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// GetCandidate godoc
// GET /api/v1/candidates/:id
// Loads a record into the edit form.
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	found, err := h.directory.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"candidate": found,
		"form":      model.FormFor(*found),
	})
}

// CreateCandidate godoc
// POST /api/v1/candidates
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	var form model.CandidateForm
	if err := decodeForm(c, &form); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	created, err := h.directory.Create(c.Request.Context(), form)
	if err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"candidate": created})
}

// UpdateCandidate godoc
// PUT /api/v1/candidates/:id
// The stored email always wins over the submitted one.
func (h *CandidateHandler) UpdateCandidate(c *gin.Context) {
	var form model.CandidateForm
	if err := decodeForm(c, &form); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	updated, err := h.directory.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"candidate": updated})
}

// DeleteCandidate godoc
// DELETE /api/v1/candidates/:id
func (h *CandidateHandler) DeleteCandidate(c *gin.Context) {
	if err := h.directory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, response.ErrBackendRejected)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Candidate deleted successfully."})
}

// decodeForm reads the body without binding validation; the directory
// normalizes the form before validating it.
func decodeForm(c *gin.Context, form *model.CandidateForm) error {
	return json.NewDecoder(c.Request.Body).Decode(form)
}
