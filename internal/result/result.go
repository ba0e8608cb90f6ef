package result

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stemsi/candidate-portal/internal/model"
)

// PassMark is the minimum score, in percent, that counts as a pass.
const PassMark = 70

// Status is the judgment of one question.
type Status string

const (
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
	// StatusReview marks free-text answers left for human review.
	StatusReview Status = "neutral"
)

const notAnswered = "Not answered"

// Item is one row of the report.
type Item struct {
	Number   int                `json:"questionNumber"`
	Question string             `json:"question"`
	Type     model.QuestionType `json:"type"`
	Options  []string           `json:"options"`
	Correct  model.Answer       `json:"correctAnswer"`
	Given    model.Answer       `json:"userAnswer"`
	Answered bool               `json:"answered"`
	Status   Status             `json:"status"`
}

// Report is the derived result view of a submitted exam.
type Report struct {
	ExamID        string  `json:"examId"`
	CandidateName string  `json:"candidateName"`
	Total         int     `json:"totalQuestions"`
	Correct       int     `json:"correctAnswers"`
	Score         int     `json:"score"`
	Passed        bool    `json:"passed"`
	Percentage    float64 `json:"percentage"`
	Qualified     bool    `json:"qualified"`
	Items         []Item  `json:"answers"`
	SubmittedAt   string  `json:"submittedAt,omitempty"`
	GradedAt      string  `json:"gradedAt,omitempty"`
}

// Normalize lowercases and trims an answer for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Judge compares a given answer against a question's key.
func Judge(q model.Question, given model.Answer) Status {
	if !q.Type.Graded() {
		return StatusReview
	}
	if given.IsEmpty() {
		return StatusIncorrect
	}
	switch q.Type {
	case model.QuestionMCQ:
		if Normalize(given.String()) == Normalize(q.CorrectAnswer.String()) {
			return StatusCorrect
		}
	case model.QuestionMSQ:
		if sameSet(given.Values(), q.CorrectAnswer.Values()) {
			return StatusCorrect
		}
	}
	return StatusIncorrect
}

func sameSet(a, b []string) bool {
	left, right := toSet(a), toSet(b)
	if len(left) != len(right) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[Normalize(it)] = struct{}{}
	}
	return set
}

// Build derives the report from the exam and its graded submission.
// Answers are looked up by index key first, then by question id.
func Build(exam *model.Exam, graded *model.GradedResult) Report {
	var submitted model.AnswerSet
	if graded != nil {
		submitted = graded.Answers
	}

	r := Report{
		ExamID:        exam.ID,
		CandidateName: exam.Owner().Name,
		Total:         len(exam.Questions),
		Items:         make([]Item, 0, len(exam.Questions)),
	}
	if r.CandidateName == "" {
		r.CandidateName = "Unknown Candidate"
	}

	for i, q := range exam.Questions {
		given, ok := submitted[model.Key(i)]
		if !ok && q.ID != "" {
			given, ok = submitted[q.ID]
		}
		item := Item{
			Number:   i + 1,
			Question: q.Prompt,
			Type:     q.Type,
			Options:  q.Options,
			Correct:  q.CorrectAnswer,
			Given:    given,
			Answered: ok && !given.IsEmpty(),
		}
		if !ok {
			item.Given = model.TextAnswer(notAnswered)
		}
		item.Status = Judge(q, given)
		if item.Status == StatusCorrect {
			r.Correct++
		}
		r.Items = append(r.Items, item)
	}

	if r.Total > 0 {
		r.Score = int(math.Round(float64(r.Correct) / float64(r.Total) * 100))
	}
	r.Passed = r.Score >= PassMark
	r.Percentage = float64(r.Score)
	r.Qualified = r.Passed

	if graded != nil {
		if graded.Percentage != nil && *graded.Percentage != 0 {
			r.Percentage = *graded.Percentage
		}
		if graded.Qualified != nil {
			r.Qualified = *graded.Qualified
		}
		r.SubmittedAt = graded.SubmittedAt
		r.GradedAt = graded.GradedAt
	}
	return r
}

// Backend is the slice of the gateway the viewer needs.
type Backend interface {
	GetResult(ctx context.Context, examID string) (*model.GradedResult, error)
	GetExam(ctx context.Context, examID string) (*model.Exam, error)
}

// Viewer loads and derives result reports.
type Viewer struct {
	backend Backend
}

func NewViewer(backend Backend) *Viewer {
	return &Viewer{backend: backend}
}

// Load fetches the graded submission and the exam, then builds the report.
func (v *Viewer) Load(ctx context.Context, examID string) (*Report, error) {
	graded, err := v.backend.GetResult(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("fetch result %s: %w", examID, err)
	}
	exam, err := v.backend.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("fetch exam %s: %w", examID, err)
	}
	report := Build(exam, graded)
	return &report, nil
}
