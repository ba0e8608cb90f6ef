package model

import (
	"encoding/json"
	"testing"
)

func TestParseSkills(t *testing.T) {
	got := ParseSkills(" Go, react ,, go, SQL ")
	want := []string{"Go", "react", "SQL"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCandidateUnmarshal(t *testing.T) {
	raw := `{"id":"c1","name":"Asha","experience":"4","highestqualification":"B.Tech","skills":"Go, SQL"}`
	var c Candidate
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.ID != "c1" || c.Experience != 4 || c.Qualification != "B.Tech" || len(c.Skills) != 2 {
		t.Errorf("candidate = %+v", c)
	}
}

func TestExamOwner(t *testing.T) {
	var e Exam
	if err := json.Unmarshal([]byte(`{"_id":"e1","candidateId":"c9","candidate":{"name":"Ravi"}}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	owner := e.Owner()
	if owner.ID != "c9" || owner.Name != "Ravi" {
		t.Errorf("owner = %+v", owner)
	}
}
