package onboarding

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/unilink/backend/internal/models"
)

// AvatarUploader stores the staged photo and returns its public URL.
type AvatarUploader interface {
	Put(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}

// ProfileFinisher applies the wizard's identity and academics results and
// flips the onboarded flag.
type ProfileFinisher interface {
	CompleteOnboarding(ctx context.Context, userID string, identity models.IdentityState, currentDegree, avatarURL string) error
}

// ContactSaver upserts the contact row.
type ContactSaver interface {
	Upsert(ctx context.Context, userID string, req *models.UpsertContactRequest) (*models.Contact, error)
}

// ExperienceReplacer swaps the user's experience rows wholesale.
type ExperienceReplacer interface {
	ReplaceForUser(ctx context.Context, userID string, rows []models.Experience) error
}

// Photo is an avatar staged with the final submission. A nil *Photo means
// no upload happens at all.
type Photo struct {
	ContentType string
	Data        io.Reader
}

// Completer performs the ordered finishing writes: avatar upload, profile
// update, contact update, then experience replacement. There is no
// transaction across them; a failure partway leaves the prior writes
// committed and returns the first error, without rollback.
type Completer struct {
	Avatars     AvatarUploader
	Profiles    ProfileFinisher
	Contacts    ContactSaver
	Experiences ExperienceReplacer

	// NewID and Now are injectable for tests; both default sensibly.
	NewID func() string
	Now   func() time.Time
}

func (c *Completer) Complete(ctx context.Context, draft *models.OnboardingDraft, photo *Photo) error {
	if ok, reason := New(draft).ReadyToComplete(); !ok {
		return fmt.Errorf("%w: %s", ErrStepIncomplete, reason)
	}

	avatarURL := ""
	if photo != nil {
		url, err := c.Avatars.Put(ctx, draft.UserID, photo.ContentType, photo.Data)
		if err != nil {
			return fmt.Errorf("avatar upload: %w", err)
		}
		avatarURL = url
	}

	if err := c.Profiles.CompleteOnboarding(ctx, draft.UserID, draft.Identity, draft.Academics.CurrentDegree, avatarURL); err != nil {
		return fmt.Errorf("profile update: %w", err)
	}

	contactReq := contactRequest(draft.Contacts)
	if _, err := c.Contacts.Upsert(ctx, draft.UserID, &contactReq); err != nil {
		return fmt.Errorf("contact update: %w", err)
	}

	newID := c.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	rows := draft.Academics.ExperienceRows(draft.UserID, newID, now)
	if err := c.Experiences.ReplaceForUser(ctx, draft.UserID, rows); err != nil {
		return fmt.Errorf("experiences save: %w", err)
	}
	return nil
}

func contactRequest(st models.ContactState) models.UpsertContactRequest {
	email, phone := st.Email, st.Phone
	visibility := st.Visibility
	if visibility == "" {
		visibility = string(models.ContactPrivate)
	}
	return models.UpsertContactRequest{
		Email:      &email,
		Phone:      &phone,
		Socials:    st.Socials,
		Visibility: &visibility,
	}
}
