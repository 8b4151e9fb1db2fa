package knowledge

import (
	"fmt"
	"strconv"
	"strings"
)

// Record rendering. The answer formatter in the reasoning loop recognizes
// these exact shapes, so the layouts here are a contract, not a style choice.

// RenderFAQ renders a question/answer pair.
func RenderFAQ(f FAQ) string {
	return fmt.Sprintf("Q: %s\nA: %s", f.Question, f.Answer)
}

// RenderCourse renders a course with its prerequisite clause.
func RenderCourse(c Course) string {
	prereqs := c.Prerequisites
	if prereqs == "" {
		prereqs = "None"
	}
	return fmt.Sprintf("%s - %s: Prerequisites: %s. %s", c.Code, c.Name, prereqs, c.Description)
}

// RenderProgram renders a degree program.
func RenderProgram(p Program) string {
	return fmt.Sprintf("%s (%s): %s", p.Name, p.DegreeType, p.Description)
}

// RenderDeadline renders a dated milestone.
func RenderDeadline(d Deadline) string {
	return fmt.Sprintf("Deadline: %s %s (%s)\nDate: %s\n%s",
		d.Semester, d.Type, d.AppliesTo, d.Date, d.Description)
}

// RenderResource renders a campus office or service.
func RenderResource(r Resource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resource: %s\n", r.Name)
	if r.Location != "" {
		loc := r.Location
		if r.Building != "" {
			loc += " (" + r.Building
			if r.Room != "" {
				loc += " " + r.Room
			}
			loc += ")"
		}
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if r.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", r.Phone)
	}
	if r.Hours != "" {
		fmt.Fprintf(&b, "Hours: %s\n", r.Hours)
	}
	fmt.Fprintf(&b, "Description: %s", r.Description)
	return b.String()
}

// RenderClub renders a student organization.
func RenderClub(c Club) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Club: %s\n", c.Name)
	if c.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", c.Department)
	}
	if c.MeetingSchedule != "" {
		fmt.Fprintf(&b, "Meetings: %s\n", c.MeetingSchedule)
	}
	fmt.Fprintf(&b, "Description: %s", c.Description)
	return b.String()
}

// RenderScholarship renders a financial award.
func RenderScholarship(s Scholarship) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scholarship: %s\nAmount: $%s\nEligibility: %s", s.Name, formatAmount(s.Amount), s.Eligibility)
	if s.MinGPA > 0 {
		fmt.Fprintf(&b, "\nMinimum GPA: %.1f", s.MinGPA)
	}
	if s.Deadline != "" {
		fmt.Fprintf(&b, "\nApply by: %s", s.Deadline)
	}
	return b.String()
}

// formatAmount adds thousands separators: 15000 -> "15,000".
func formatAmount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
