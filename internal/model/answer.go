package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Answer is one answer value: free text for mcq/short/descriptive questions
// or a list of selected options for msq.
type Answer struct {
	Text    string
	Choices []string
	IsList  bool
}

// TextAnswer builds a string answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ListAnswer builds a list answer. A nil list still marshals as [].
func ListAnswer(items ...string) Answer {
	return Answer{Choices: append([]string{}, items...), IsList: true}
}

// EmptyAnswerFor returns the type-appropriate empty value.
func EmptyAnswerFor(t QuestionType) Answer {
	if t == QuestionMSQ {
		return ListAnswer()
	}
	return TextAnswer("")
}

// IsEmpty reports whether the answer holds nothing a candidate entered.
func (a Answer) IsEmpty() bool {
	if a.IsList {
		return len(a.Choices) == 0
	}
	return strings.TrimSpace(a.Text) == ""
}

// Values returns the answer as a list; a non-empty string becomes one item.
func (a Answer) Values() []string {
	if a.IsList {
		return a.Choices
	}
	if a.Text == "" {
		return nil
	}
	return []string{a.Text}
}

// Contains reports list membership.
func (a Answer) Contains(v string) bool {
	for _, c := range a.Choices {
		if c == v {
			return true
		}
	}
	return false
}

// Toggle adds v to a list answer or removes it when already selected.
func (a Answer) Toggle(v string) Answer {
	out := make([]string, 0, len(a.Choices)+1)
	found := false
	for _, c := range a.Choices {
		if c == v {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, v)
	}
	return Answer{Choices: out, IsList: true}
}

func (a Answer) String() string {
	if a.IsList {
		return strings.Join(a.Choices, ", ")
	}
	return a.Text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		if a.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Choices)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null":
		*a = Answer{}
	case strings.HasPrefix(trimmed, "["):
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var item Answer
			if err := item.UnmarshalJSON(r); err != nil {
				return err
			}
			items = append(items, item.String())
		}
		*a = Answer{Choices: items, IsList: true}
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Answer{Text: s}
	default:
		// numbers and booleans are kept by their literal text
		*a = Answer{Text: trimmed}
	}
	return nil
}

// AnswerSet maps a stringified question index to its answer.
type AnswerSet map[string]Answer

// Key is the answer-set key of a question index.
func Key(index int) string { return strconv.Itoa(index) }

// NewAnswerSet seeds an empty answer for every question.
func NewAnswerSet(questions []Question) AnswerSet {
	set := make(AnswerSet, len(questions))
	for i, q := range questions {
		set[Key(i)] = EmptyAnswerFor(q.Type)
	}
	return set
}

// Clone copies the set so callers cannot mutate engine state.
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for k, v := range s {
		if v.IsList {
			v.Choices = append([]string{}, v.Choices...)
		}
		out[k] = v
	}
	return out
}

// AnsweredCount counts non-empty answers.
func (s AnswerSet) AnsweredCount() int {
	n := 0
	for _, a := range s {
		if !a.IsEmpty() {
			n++
		}
	}
	return n
}

// FormatAnswersForSubmission returns a set with exactly one entry per
// question index, coercing each value to its question's shape.
func FormatAnswersForSubmission(questions []Question, answers AnswerSet) AnswerSet {
	out := make(AnswerSet, len(questions))
	for i, q := range questions {
		a, ok := answers[Key(i)]
		switch {
		case !ok:
			a = EmptyAnswerFor(q.Type)
		case q.Type == QuestionMSQ && !a.IsList:
			a = ListAnswer(a.Values()...)
		case q.Type != QuestionMSQ && a.IsList:
			a = TextAnswer(a.String())
		case a.IsList:
			a = ListAnswer(a.Choices...)
		}
		out[Key(i)] = a
	}
	return out
}

var ErrAnswerShape = errors.New("answer set does not match questions")

// ValidateAnswerShape checks one entry per index with a list value exactly
// for msq questions.
func ValidateAnswerShape(questions []Question, answers AnswerSet) error {
	if len(answers) != len(questions) {
		return fmt.Errorf("%w: %d answers for %d questions", ErrAnswerShape, len(answers), len(questions))
	}
	for i, q := range questions {
		a, ok := answers[Key(i)]
		if !ok {
			return fmt.Errorf("%w: missing answer for question %d", ErrAnswerShape, i+1)
		}
		if (q.Type == QuestionMSQ) != a.IsList {
			return fmt.Errorf("%w: question %d has the wrong answer type", ErrAnswerShape, i+1)
		}
	}
	return nil
}

// MissingAnswers returns the indexes of questions without a non-empty answer.
func MissingAnswers(questions []Question, answers AnswerSet) []int {
	var missing []int
	for i := range questions {
		if a, ok := answers[Key(i)]; !ok || a.IsEmpty() {
			missing = append(missing, i)
		}
	}
	return missing
}
