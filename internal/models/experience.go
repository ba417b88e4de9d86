package models

import "time"

// ExperienceKind discriminates the typed academic records hanging off a user.
type ExperienceKind string

const (
	ExperienceDegree     ExperienceKind = "degree"
	ExperienceCourse     ExperienceKind = "course"
	ExperienceExchange   ExperienceKind = "exchange"
	ExperienceInternship ExperienceKind = "internship"
)

// Experience is one academic record. Rows are replaced wholesale on every
// academics save, never diffed, so IDs are regenerated each time.
type Experience struct {
	ID           string         `json:"id" bson:"_id"`
	UserID       string         `json:"user_id" bson:"user_id"`
	Kind         ExperienceKind `json:"kind" bson:"kind"`
	Organization string         `json:"organization" bson:"organization,omitempty"`
	Title        string         `json:"title" bson:"title,omitempty"`
	Level        string         `json:"level" bson:"level,omitempty"`
	Semester     string         `json:"semester" bson:"semester,omitempty"`
	Code         string         `json:"code" bson:"code,omitempty"`
	StartDate    string         `json:"start_date" bson:"start_date,omitempty"`
	EndDate      string         `json:"end_date" bson:"end_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

// ExperienceInput is the form-level shape shared by all academics entries.
type ExperienceInput struct {
	Organization string `json:"organization" validate:"omitempty,max=160"`
	Title        string `json:"title" validate:"omitempty,max=160"`
	Level        string `json:"level" validate:"omitempty,max=60"`
	Semester     string `json:"semester" validate:"omitempty,max=40"`
	Code         string `json:"code" validate:"omitempty,max=40"`
	StartDate    string `json:"start_date" validate:"omitempty,max=20"`
	EndDate      string `json:"end_date" validate:"omitempty,max=20"`
}

// AcademicsState is the academics section of a profile as edited in forms.
// Saving it replaces every prior experience row for the user.
type AcademicsState struct {
	CurrentDegree string            `json:"current_degree" validate:"omitempty,max=160"`
	OtherDegrees  []ExperienceInput `json:"other_degrees" validate:"omitempty,max=10,dive"`
	Courses       []ExperienceInput `json:"courses" validate:"omitempty,max=30,dive"`
	Exchange      *ExperienceInput  `json:"exchange" validate:"omitempty"`
	Internships   []ExperienceInput `json:"internships" validate:"omitempty,max=10,dive"`
}

// ExperienceRows derives the exact set of rows the academics state maps to.
// newID supplies row ids so callers control id generation.
func (a *AcademicsState) ExperienceRows(userID string, newID func() string, now time.Time) []Experience {
	rows := make([]Experience, 0, len(a.OtherDegrees)+len(a.Courses)+len(a.Internships)+1)

	add := func(kind ExperienceKind, in ExperienceInput) {
		rows = append(rows, Experience{
			ID:           newID(),
			UserID:       userID,
			Kind:         kind,
			Organization: in.Organization,
			Title:        in.Title,
			Level:        in.Level,
			Semester:     in.Semester,
			Code:         in.Code,
			StartDate:    in.StartDate,
			EndDate:      in.EndDate,
			CreatedAt:    now,
		})
	}

	for _, d := range a.OtherDegrees {
		add(ExperienceDegree, d)
	}
	for _, c := range a.Courses {
		add(ExperienceCourse, c)
	}
	if a.Exchange != nil && (a.Exchange.Organization != "" || a.Exchange.Title != "") {
		add(ExperienceExchange, *a.Exchange)
	}
	for _, i := range a.Internships {
		add(ExperienceInternship, i)
	}
	return rows
}
