package models

import "time"

// IdentityState is the identity step of the onboarding wizard.
type IdentityState struct {
	FirstName string `json:"first_name" validate:"omitempty,max=80"`
	LastName  string `json:"last_name" validate:"omitempty,max=80"`
	Bio       string `json:"bio" validate:"omitempty,max=2000"`
}

// ContactState is the contacts step of the onboarding wizard.
type ContactState struct {
	Email      string            `json:"email" validate:"omitempty,email,max=254"`
	Phone      string            `json:"phone" validate:"omitempty,max=40"`
	Socials    map[string]string `json:"socials" validate:"omitempty,dive,keys,max=40,endkeys,max=300"`
	Visibility string            `json:"visibility" validate:"omitempty,oneof=private verified"`
}

// OnboardingDraft is the persisted working state of a user's onboarding
// wizard. One per user; deleted once onboarding completes.
type OnboardingDraft struct {
	UserID      string         `json:"user_id" bson:"user_id"`
	Step        int            `json:"step" bson:"step"`
	PasswordSet bool           `json:"password_set" bson:"password_set"`
	Identity    IdentityState  `json:"identity" bson:"identity"`
	Academics   AcademicsState `json:"academics" bson:"academics"`
	Contacts    ContactState   `json:"contacts" bson:"contacts"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// UpdateDraftRequest patches individual wizard sections. Omitted sections are
// left untouched.
type UpdateDraftRequest struct {
	Identity  *IdentityState  `json:"identity" validate:"omitempty"`
	Academics *AcademicsState `json:"academics" validate:"omitempty"`
	Contacts  *ContactState   `json:"contacts" validate:"omitempty"`
}
