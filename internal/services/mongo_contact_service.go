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

type MongoContactService struct {
	client      *mongo.Client
	db          *mongo.Database
	contactsCol *mongo.Collection
}

func NewMongoContactService(ctx context.Context, mongoURI, dbName string) (*MongoContactService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("contacts")

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	log.Info().Str("db", dbName).Msg("mongodb connected (contacts)")
	return &MongoContactService{
		client:      client,
		db:          db,
		contactsCol: col,
	}, nil
}

func (s *MongoContactService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoContactService) GetByUserID(ctx context.Context, userID string) (*models.Contact, error) {
	var c models.Contact
	if err := s.contactsCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *MongoContactService) Upsert(ctx context.Context, userID string, req *models.UpsertContactRequest) (*models.Contact, error) {
	now := time.Now()

	set := bson.M{"updated_at": now}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.Socials != nil {
		set["socials"] = req.Socials
	}
	if req.Visibility != nil {
		set["visibility"] = *req.Visibility
	}

	setOnInsert := bson.M{"user_id": userID}
	// New rows default to private unless the caller sets visibility; Mongo
	// forbids the same path in both $set and $setOnInsert.
	if req.Visibility == nil {
		setOnInsert["visibility"] = string(models.ContactPrivate)
	}

	_, err := s.contactsCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	var c models.Contact
	if err := s.contactsCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoContactService) Delete(ctx context.Context, userID string) error {
	_, err := s.contactsCol.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
