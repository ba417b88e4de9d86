package models

import "time"

// ContactVisibility controls who may see a student's private contact channels.
type ContactVisibility string

const (
	// ContactPrivate hides contact channels from everyone but the owner.
	ContactPrivate ContactVisibility = "private"
	// ContactVisibleToStudents shares contact channels with other
	// onboarding-completed students.
	ContactVisibleToStudents ContactVisibility = "verified"
)

// Contact holds a student's private contact channels. One-to-one with Profile.
type Contact struct {
	UserID     string            `json:"user_id" bson:"user_id"`
	Email      string            `json:"email" bson:"email,omitempty"`
	Phone      string            `json:"phone" bson:"phone,omitempty"`
	Socials    map[string]string `json:"socials" bson:"socials,omitempty"`
	Visibility ContactVisibility `json:"visibility" bson:"visibility"`
	UpdatedAt  time.Time         `json:"updated_at" bson:"updated_at"`
}

// VisibleTo reports whether viewerID may see these channels. viewerOnboarded
// is the viewer's onboarding-completion state; access control beyond this is
// the hosted backend's concern.
func (c *Contact) VisibleTo(viewerID string, viewerOnboarded bool) bool {
	if c == nil {
		return false
	}
	if viewerID == c.UserID {
		return true
	}
	return c.Visibility == ContactVisibleToStudents && viewerOnboarded
}

type UpsertContactRequest struct {
	Email      *string           `json:"email" validate:"omitempty,email,max=254"`
	Phone      *string           `json:"phone" validate:"omitempty,max=40"`
	Socials    map[string]string `json:"socials" validate:"omitempty,dive,keys,max=40,endkeys,max=300"`
	Visibility *string           `json:"visibility" validate:"omitempty,oneof=private verified"`
}
