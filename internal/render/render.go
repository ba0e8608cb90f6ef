// Package render prints portal data as terminal tables.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/result"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

// Candidates prints one directory page.
func Candidates(w io.Writer, page *candidate.Page) {
	table := newTable(w, "ID", "Name", "Email", "Phone", "Gender", "Exp", "Qualification", "Skills")
	for _, c := range page.Candidates {
		table.Append([]string{
			c.ID,
			c.Name,
			c.Email,
			c.Phone,
			string(c.Gender),
			strconv.Itoa(c.Experience),
			c.Qualification,
			c.Skills.String(),
		})
	}
	table.Render()
	fmt.Fprintf(w, "Page %d of %d (%d shown, %d loaded, %d total)\n",
		page.Number, page.TotalPages, len(page.Candidates), page.Loaded, page.TotalItems)
}

// Candidate prints a single record as key/value rows.
func Candidate(w io.Writer, c *model.Candidate) {
	table := newTable(w, "Field", "Value")
	table.AppendBulk([][]string{
		{"ID", c.ID},
		{"Name", c.Name},
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Gender", string(c.Gender)},
		{"Experience", strconv.Itoa(c.Experience)},
		{"Qualification", c.Qualification},
		{"Skills", c.Skills.String()},
	})
	table.Render()
}

func statusCell(s result.Status) string {
	switch s {
	case result.StatusCorrect:
		return green("correct")
	case result.StatusIncorrect:
		return red("incorrect")
	default:
		return yellow("review")
	}
}

// Report prints a graded result with a per-question breakdown.
func Report(w io.Writer, r *result.Report) {
	fmt.Fprintf(w, "%s  %s\n", bold("Candidate:"), r.CandidateName)
	fmt.Fprintf(w, "%s  %d/%d correct, score %d%%, percentage %.1f%%\n",
		bold("Result:"), r.Correct, r.Total, r.Score, r.Percentage)

	verdict := red("Not qualified")
	if r.Qualified {
		verdict = green("Qualified")
	}
	fmt.Fprintf(w, "%s  %s\n", bold("Status:"), verdict)

	table := newTable(w, "#", "Type", "Question", "Your answer", "Correct answer", "Status")
	for _, item := range r.Items {
		table.Append([]string{
			strconv.Itoa(item.Number),
			item.Type.Label(),
			item.Question,
			item.Given.String(),
			item.Correct.String(),
			statusCell(item.Status),
		})
	}
	table.Render()
}

// ProctoringSummary prints the backend's log aggregate, busiest type first.
func ProctoringSummary(w io.Writer, examID string, s *model.ProctoringSummary) {
	fmt.Fprintf(w, "%s %s  (%d log entries)\n", bold("Proctoring summary for exam"), examID, s.TotalLogs)

	table := newTable(w, "Activity", "Count")
	for _, k := range sortedByCount(s.CountsByType) {
		table.Append([]string{k, strconv.Itoa(s.CountsByType[k])})
	}
	table.Render()

	sev := newTable(w, "Severity", "Count")
	for _, k := range []string{string(model.SeverityHigh), string(model.SeverityMedium), string(model.SeverityLow)} {
		n, ok := s.CountsBySeverity[k]
		if !ok {
			continue
		}
		label := k
		if k == string(model.SeverityHigh) && n > 0 {
			label = red(k)
		}
		sev.Append([]string{label, strconv.Itoa(n)})
	}
	sev.Render()
}

func sortedByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Success and Failure print a one-line colored status.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, green(fmt.Sprintf(format, args...)))
}

func Failure(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, red(fmt.Sprintf(format, args...)))
}
