package candidate

import (
	"strings"

	"github.com/stemsi/candidate-portal/internal/model"
)

// MaxExperience bounds the experience filter.
const MaxExperience = 30

// Filter narrows the loaded page client-side. Empty fields match everything;
// set fields combine with AND.
type Filter struct {
	Search        string       `form:"search" json:"search"`
	Gender        model.Gender `form:"gender" json:"gender"`
	Qualification string       `form:"qualification" json:"qualification"`
	ExpMin        *int         `form:"expMin" json:"expMin"`
	ExpMax        *int         `form:"expMax" json:"expMax"`
	Skills        string       `form:"skills" json:"skills"`
}

// Validate checks the experience range.
func (f Filter) Validate() map[string]string {
	errs := map[string]string{}
	if f.ExpMin != nil && f.ExpMax != nil && *f.ExpMin > *f.ExpMax {
		errs["experience"] = "Min experience cannot be greater than max experience"
	}
	if f.ExpMin != nil && (*f.ExpMin < 0 || *f.ExpMin > MaxExperience) {
		errs["experience"] = "Min experience must be between 0 and 30"
	}
	if f.ExpMax != nil && (*f.ExpMax < 0 || *f.ExpMax > MaxExperience) {
		errs["experience"] = "Max experience must be between 0 and 30"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Empty reports whether no criterion is set.
func (f Filter) Empty() bool {
	return f.Search == "" && f.Gender == "" && f.Qualification == "" &&
		f.ExpMin == nil && f.ExpMax == nil && f.Skills == ""
}

// Matches applies every set criterion to c.
func (f Filter) Matches(c model.Candidate) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !containsFold(c.Name, term) && !containsFold(c.Email, term) && !containsFold(c.Phone, term) {
			return false
		}
	}
	if f.Gender != "" && c.Gender != f.Gender {
		return false
	}
	if f.Qualification != "" && !containsFold(c.Qualification, strings.ToLower(f.Qualification)) {
		return false
	}
	if f.ExpMin != nil && c.Experience < *f.ExpMin {
		return false
	}
	if f.ExpMax != nil && c.Experience > *f.ExpMax {
		return false
	}
	if f.Skills != "" {
		term := strings.ToLower(f.Skills)
		found := false
		for _, s := range c.Skills {
			if containsFold(s, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

// Apply returns the candidates matching f, keeping order.
func Apply(list []model.Candidate, f Filter) []model.Candidate {
	if f.Empty() {
		return list
	}
	out := make([]model.Candidate, 0, len(list))
	for _, c := range list {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}
