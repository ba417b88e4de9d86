package services

import (
	"context"
	"crypto/tls"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unilink/backend/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrDraftNotFound   = errors.New("onboarding draft not found")
	ErrBadInput        = errors.New("missing or invalid input")
)

// ProfileService owns the profiles table.
type ProfileService interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error)
	Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error)
	CompleteOnboarding(ctx context.Context, userID string, identity models.IdentityState, currentDegree, avatarURL string) error
	SetAvatarURL(ctx context.Context, userID, url string) error
	ClearAvatarIfMatches(ctx context.Context, userID, url string) error
	Search(ctx context.Context, q, excludeUserID string, offset, limit int64) ([]*models.Profile, error)
	ByUserIDs(ctx context.Context, userIDs []string) ([]*models.Profile, error)
	Delete(ctx context.Context, userID string) error
}

// ContactService owns the contacts table. One row per user, upserted.
type ContactService interface {
	GetByUserID(ctx context.Context, userID string) (*models.Contact, error)
	Upsert(ctx context.Context, userID string, req *models.UpsertContactRequest) (*models.Contact, error)
	Delete(ctx context.Context, userID string) error
}

// ExperienceService owns the experiences table. Rows are replaced wholesale
// on every academics save.
type ExperienceService interface {
	ListByUserID(ctx context.Context, userID string) ([]models.Experience, error)
	ReplaceForUser(ctx context.Context, userID string, rows []models.Experience) error
	OwnerIDs(ctx context.Context, kind models.ExperienceKind, q string, limit int64) ([]string, error)
	ByUserIDs(ctx context.Context, userIDs []string) (map[string][]models.Experience, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// OnboardingService persists wizard drafts between requests.
type OnboardingService interface {
	Get(ctx context.Context, userID string) (*models.OnboardingDraft, error)
	GetOrCreate(ctx context.Context, userID, email string) (*models.OnboardingDraft, error)
	Save(ctx context.Context, draft *models.OnboardingDraft) error
	Delete(ctx context.Context, userID string) error
}

// connectMongo dials the hosted cluster. Atlas occasionally fails TLS
// negotiation in some environments unless we force TLS 1.2.
func connectMongo(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}
