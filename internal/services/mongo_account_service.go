package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoAccountService struct {
	client         *mongo.Client
	db             *mongo.Database
	profilesCol    *mongo.Collection
	contactsCol    *mongo.Collection
	experiencesCol *mongo.Collection
	draftsCol      *mongo.Collection
}

func NewMongoAccountService(ctx context.Context, mongoURI, dbName string) (*MongoAccountService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	return &MongoAccountService{
		client:         client,
		db:             db,
		profilesCol:    db.Collection("profiles"),
		contactsCol:    db.Collection("contacts"),
		experiencesCol: db.Collection("experiences"),
		draftsCol:      db.Collection("onboarding_drafts"),
	}, nil
}

func (s *MongoAccountService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type DeleteAccountResult struct {
	AvatarURL string `json:"avatar_url"`
}

// DeleteAccount removes all directory data for the given auth UID: profile,
// contact row, experience rows, and any onboarding draft. It returns the
// avatar URL so the caller can clean up object storage afterwards; the
// hosted auth record itself stays the auth provider's responsibility.
func (s *MongoAccountService) DeleteAccount(ctx context.Context, userID string) (*DeleteAccountResult, error) {
	if userID == "" {
		return nil, ErrBadInput
	}

	avatarURL := ""
	{
		var prof struct {
			AvatarURL string `bson:"avatar_url"`
		}
		if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err == nil {
			avatarURL = prof.AvatarURL
		}
	}

	// Dependents first, profile last, so a partial failure never leaves a
	// profile pointing at deleted rows.
	_, _ = s.experiencesCol.DeleteMany(ctx, bson.M{"user_id": userID})
	_, _ = s.contactsCol.DeleteOne(ctx, bson.M{"user_id": userID})
	_, _ = s.draftsCol.DeleteOne(ctx, bson.M{"user_id": userID})
	_, _ = s.profilesCol.DeleteOne(ctx, bson.M{"user_id": userID})

	return &DeleteAccountResult{AvatarURL: avatarURL}, nil
}

// Helper for handlers that want a sane timeout.
func DefaultAccountTimeout() time.Duration { return 20 * time.Second }
