package models

import "time"

// Profile is user-editable directory data stored in Mongo and keyed by the
// hosted-auth UID. The Onboarded flag gates visibility in directory search.
type Profile struct {
	UserID        string    `json:"user_id" bson:"user_id"`
	Email         string    `json:"email" bson:"email,omitempty"`
	FirstName     string    `json:"first_name" bson:"first_name,omitempty"`
	LastName      string    `json:"last_name" bson:"last_name,omitempty"`
	Bio           string    `json:"bio" bson:"bio,omitempty"`
	AvatarURL     string    `json:"avatar_url" bson:"avatar_url,omitempty"`
	CurrentDegree string    `json:"current_degree" bson:"current_degree,omitempty"`
	Onboarded     bool      `json:"onboarded" bson:"onboarded"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// PublicProfile is safe to share with other authenticated students (no email,
// no onboarding state).
type PublicProfile struct {
	UserID        string `json:"user_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Bio           string `json:"bio"`
	AvatarURL     string `json:"avatar_url"`
	CurrentDegree string `json:"current_degree"`
}

func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		UserID:        p.UserID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Bio:           p.Bio,
		AvatarURL:     p.AvatarURL,
		CurrentDegree: p.CurrentDegree,
	}
}

// UpdateProfileRequest uses pointers so omitted fields preserve stored values.
type UpdateProfileRequest struct {
	FirstName     *string `json:"first_name" validate:"omitempty,max=80"`
	LastName      *string `json:"last_name" validate:"omitempty,max=80"`
	Bio           *string `json:"bio" validate:"omitempty,max=2000"`
	CurrentDegree *string `json:"current_degree" validate:"omitempty,max=160"`
}
