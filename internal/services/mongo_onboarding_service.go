package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unilink/backend/internal/models"
)

type MongoOnboardingService struct {
	client    *mongo.Client
	db        *mongo.Database
	draftsCol *mongo.Collection
}

func NewMongoOnboardingService(ctx context.Context, mongoURI, dbName string) (*MongoOnboardingService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("onboarding_drafts")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	log.Info().Str("db", dbName).Msg("mongodb connected (onboarding drafts)")
	return &MongoOnboardingService{
		client:    client,
		db:        db,
		draftsCol: col,
	}, nil
}

func (s *MongoOnboardingService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoOnboardingService) Get(ctx context.Context, userID string) (*models.OnboardingDraft, error) {
	var d models.OnboardingDraft
	if err := s.draftsCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &d, nil
}

// GetOrCreate returns the user's draft, seeding a fresh one at step 0 with
// the auth email prefilled into the contacts section.
func (s *MongoOnboardingService) GetOrCreate(ctx context.Context, userID, email string) (*models.OnboardingDraft, error) {
	d, err := s.Get(ctx, userID)
	if err == nil {
		return d, nil
	}
	if err != ErrDraftNotFound {
		return nil, err
	}

	fresh := &models.OnboardingDraft{
		UserID: userID,
		Step:   0,
		Contacts: models.ContactState{
			Email:      email,
			Visibility: string(models.ContactPrivate),
		},
		UpdatedAt: time.Now(),
	}
	if _, err := s.draftsCol.InsertOne(ctx, fresh); err != nil {
		// If a race created it, fetch again.
		if d, err2 := s.Get(ctx, userID); err2 == nil {
			return d, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *MongoOnboardingService) Save(ctx context.Context, draft *models.OnboardingDraft) error {
	if draft == nil || draft.UserID == "" {
		return ErrBadInput
	}
	draft.UpdatedAt = time.Now()

	_, err := s.draftsCol.ReplaceOne(
		ctx,
		bson.M{"user_id": draft.UserID},
		draft,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoOnboardingService) Delete(ctx context.Context, userID string) error {
	_, err := s.draftsCol.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
