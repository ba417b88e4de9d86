package models

import (
	"fmt"
	"testing"
	"time"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestExperienceRows(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)

	state := AcademicsState{
		CurrentDegree: "BSc Computer Science",
		OtherDegrees: []ExperienceInput{
			{Organization: "TU Delft", Title: "BSc Physics", Level: "bachelor"},
		},
		Courses: []ExperienceInput{
			{Title: "Distributed Systems", Code: "CS4405"},
			{Title: "Databases", Code: "CS2040"},
		},
		Exchange: &ExperienceInput{Organization: "KTH Stockholm", Semester: "2025-fall"},
		Internships: []ExperienceInput{
			{Organization: "Acme Corp", Title: "Backend Intern"},
		},
	}

	rows := state.ExperienceRows("u1", sequentialIDs(), now)

	wantKinds := []ExperienceKind{
		ExperienceDegree,
		ExperienceCourse, ExperienceCourse,
		ExperienceExchange,
		ExperienceInternship,
	}
	if len(rows) != len(wantKinds) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantKinds))
	}
	for i, row := range rows {
		if row.Kind != wantKinds[i] {
			t.Errorf("row %d kind = %s, want %s", i, row.Kind, wantKinds[i])
		}
		if row.UserID != "u1" {
			t.Errorf("row %d user = %q", i, row.UserID)
		}
		if row.ID == "" {
			t.Errorf("row %d has no id", i)
		}
		if !row.CreatedAt.Equal(now) {
			t.Errorf("row %d created at %v", i, row.CreatedAt)
		}
	}

	if rows[1].Title != "Distributed Systems" || rows[1].Code != "CS4405" {
		t.Errorf("course row = %+v", rows[1])
	}
	if rows[3].Organization != "KTH Stockholm" {
		t.Errorf("exchange row = %+v", rows[3])
	}
}

func TestExperienceRowsEmptyExchangeSkipped(t *testing.T) {
	state := AcademicsState{
		CurrentDegree: "MSc Biology",
		Exchange:      &ExperienceInput{Semester: "2025-spring"},
	}

	rows := state.ExperienceRows("u1", sequentialIDs(), time.Now())
	if len(rows) != 0 {
		t.Errorf("exchange with no organization or title produced rows: %+v", rows)
	}
}

func TestExperienceRowsEmptyState(t *testing.T) {
	state := AcademicsState{CurrentDegree: "MSc Biology"}
	if rows := state.ExperienceRows("u1", sequentialIDs(), time.Now()); len(rows) != 0 {
		t.Errorf("empty state produced rows: %+v", rows)
	}
}
