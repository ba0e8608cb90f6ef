package model

import (
	"encoding/json"
	"strings"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionMSQ         QuestionType = "msq"
	QuestionShort       QuestionType = "short"
	QuestionDescriptive QuestionType = "descriptive"
)

// Label returns the display label of a question type.
func (t QuestionType) Label() string {
	switch t {
	case QuestionMCQ:
		return "Multiple Choice"
	case QuestionMSQ:
		return "Multiple Select"
	case QuestionShort:
		return "Short Answer"
	case QuestionDescriptive:
		return "Descriptive"
	default:
		return string(t)
	}
}

// Graded reports whether the client can judge answers of this type.
func (t QuestionType) Graded() bool {
	return t == QuestionMCQ || t == QuestionMSQ
}

// Question is one exam question. Its identity within an exam is its index.
type Question struct {
	ID            string       `json:"_id,omitempty"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
}

// CandidateRef is the owning candidate of an exam. The backend sends either
// a populated object or a bare id string.
type CandidateRef struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (r *CandidateRef) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(b, &r.ID)
	}
	if trimmed == "null" {
		return nil
	}
	type alias CandidateRef
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = CandidateRef(raw.alias)
	if r.ID == "" {
		r.ID = raw.AltID
	}
	return nil
}

// Exam is a generated exam with its questions.
type Exam struct {
	ID            string        `json:"_id"`
	Title         string        `json:"title,omitempty"`
	Questions     []Question    `json:"questions"`
	CandidateID   *CandidateRef `json:"candidateId,omitempty"`
	Candidate     *CandidateRef `json:"candidate,omitempty"`
	CandidateName string        `json:"candidateName,omitempty"`
}

// Owner resolves the owning candidate from whichever field the backend filled.
func (e *Exam) Owner() CandidateRef {
	var ref CandidateRef
	for _, r := range []*CandidateRef{e.CandidateID, e.Candidate} {
		if r == nil {
			continue
		}
		if ref.ID == "" {
			ref.ID = r.ID
		}
		if ref.Name == "" {
			ref.Name = r.Name
		}
		if ref.Email == "" {
			ref.Email = r.Email
		}
	}
	if ref.Name == "" {
		ref.Name = e.CandidateName
	}
	return ref
}

// GradedResult is the backend's record of a submitted exam.
type GradedResult struct {
	Answers     AnswerSet `json:"answers"`
	Percentage  *float64  `json:"percentage,omitempty"`
	Qualified   *bool     `json:"qualified,omitempty"`
	SubmittedAt string    `json:"submittedAt,omitempty"`
	GradedAt    string    `json:"gradedAt,omitempty"`
}

// GenerateExamRequest asks the backend to generate an exam for a candidate.
type GenerateExamRequest struct {
	CandidateID string `json:"candidateId" binding:"required"`
}

// SubmitExamRequest is the submission payload.
type SubmitExamRequest struct {
	Answers AnswerSet `json:"answers"`
}
