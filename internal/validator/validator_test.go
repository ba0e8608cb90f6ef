package validator

import (
	"testing"

	"github.com/stemsi/candidate-portal/internal/model"
)

func validForm() model.CandidateForm {
	return model.CandidateForm{
		Name:          "Asha Rao",
		Phone:         "+91-9848012345",
		Email:         "asha@example.com",
		Gender:        model.GenderFemale,
		Experience:    3,
		Qualification: "B.Tech",
		Skills:        model.SkillList{"Go"},
	}
}

func TestPhonePattern(t *testing.T) {
	cases := map[string]bool{
		"+91-9848012345":  true,
		"+1 9848012345":   true,
		"+971-9848012345": true,
		"9848012345":      false,
		"+91-98480123":    false,
		"+9123-984801234": false,
		"+91_9848012345":  false,
	}
	for phone, want := range cases {
		if got := PhonePattern.MatchString(phone); got != want {
			t.Errorf("PhonePattern(%q) = %v, want %v", phone, got, want)
		}
	}
}

func TestCheckCandidateForm(t *testing.T) {
	if err := Check(validForm()); err != nil {
		t.Fatalf("valid form rejected: %v", Fields(err))
	}

	f := validForm()
	f.Phone = "9848012345"
	f.Name = "A"
	f.Experience = 31
	f.Skills = nil
	err := Check(f)
	if err == nil {
		t.Fatal("invalid form accepted")
	}
	fields := Fields(err)
	for _, key := range []string{"phone", "name", "experience", "skills"} {
		if fields[key] == "" {
			t.Errorf("missing field error for %q in %v", key, fields)
		}
	}
}

func TestCheckEmailSimple(t *testing.T) {
	for email, ok := range map[string]bool{
		"a@b.co":       true,
		"a@b":          false,
		"a b@c.com":    false,
		"missing.at.x": false,
	} {
		err := Check(model.ForgotPasswordRequest{Email: email})
		if (err == nil) != ok {
			t.Errorf("email %q: err = %v, want ok=%v", email, err, ok)
		}
	}
}

func TestCheckResetConfirmation(t *testing.T) {
	err := Check(model.ResetPasswordRequest{Password: "secret1", ConfirmPassword: "secret2"})
	if Fields(err)["confirmPassword"] == "" {
		t.Errorf("mismatch not reported: %v", Fields(err))
	}
}
