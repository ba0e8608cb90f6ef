package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Gender enumerates the genders a candidate record accepts.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Candidate is a candidate record as served by the backend.
type Candidate struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Gender        Gender    `json:"gender"`
	Experience    int       `json:"experience"`
	Qualification string    `json:"highestqualification"`
	Skills        SkillList `json:"skills"`
}

// UnmarshalJSON accepts either `_id` or `id`, and an experience sent as a
// number or a numeric string.
func (c *Candidate) UnmarshalJSON(b []byte) error {
	type alias Candidate
	var raw struct {
		alias
		AltID      string          `json:"id"`
		Experience json.RawMessage `json:"experience"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = Candidate(raw.alias)
	if c.ID == "" {
		c.ID = raw.AltID
	}
	exp, err := parseLooseInt(raw.Experience)
	if err != nil {
		return fmt.Errorf("candidate experience: %w", err)
	}
	c.Experience = exp
	return nil
}

func parseLooseInt(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// CandidatePage is one server page of candidates.
type CandidatePage struct {
	Results []Candidate `json:"results"`
	Meta    struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// CandidateForm is the payload for creating or editing a candidate.
type CandidateForm struct {
	Name          string    `json:"name" binding:"required,min=2,max=100"`
	Phone         string    `json:"phone" binding:"required,phone"`
	Email         string    `json:"email" binding:"required,email_simple"`
	Gender        Gender    `json:"gender" binding:"required,oneof=Male Female Other"`
	Experience    int       `json:"experience" binding:"required,min=1,max=30"`
	Qualification string    `json:"highestqualification" binding:"required,max=200"`
	Skills        SkillList `json:"skills" binding:"required,min=1,dive,required"`
}

// FormFor pre-fills a form from an existing record for edit mode.
func FormFor(c Candidate) CandidateForm {
	return CandidateForm{
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		Gender:        c.Gender,
		Experience:    c.Experience,
		Qualification: c.Qualification,
		Skills:        append(SkillList(nil), c.Skills...),
	}
}

// SkillList is an ordered, deduplicated list of skills. It decodes from a
// JSON array or from comma-separated text.
type SkillList []string

// ParseSkills splits comma-separated input, trimming entries and dropping
// empties and case-insensitive duplicates while keeping first-seen order.
func ParseSkills(raw string) SkillList {
	return NormalizeSkills(strings.Split(raw, ","))
}

// NormalizeSkills trims, drops empties and deduplicates.
func NormalizeSkills(items []string) SkillList {
	seen := make(map[string]struct{}, len(items))
	out := make(SkillList, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (s *SkillList) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null":
		*s = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*s = NormalizeSkills(items)
		return nil
	default:
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = ParseSkills(text)
		return nil
	}
}

// String joins the skills the way the edit form displays them.
func (s SkillList) String() string {
	return strings.Join(s, ", ")
}
