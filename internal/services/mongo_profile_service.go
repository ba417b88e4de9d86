package services

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unilink/backend/internal/models"
)

type MongoProfileService struct {
	client      *mongo.Client
	db          *mongo.Database
	profilesCol *mongo.Collection
}

func NewMongoProfileService(ctx context.Context, mongoURI, dbName string) (*MongoProfileService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("profiles")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "onboarded", Value: 1}, {Key: "last_name", Value: 1}}},
	})

	log.Info().Str("db", dbName).Msg("mongodb connected (profiles)")
	return &MongoProfileService{
		client:      client,
		db:          db,
		profilesCol: col,
	}, nil
}

func (s *MongoProfileService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileService) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

// GetOrCreate returns the user's profile, creating an empty one on first
// authenticated touch. Also keeps the stored email in sync with the hosted
// auth provider.
func (s *MongoProfileService) GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error) {
	now := time.Now()

	var prof models.Profile
	err := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prof)
	if err == nil {
		if email != "" && prof.Email != email {
			_, _ = s.profilesCol.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
				"$set": bson.M{"email": email, "updated_at": now},
			})
			prof.Email = email
			prof.UpdatedAt = now
		}
		return &prof, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	prof = models.Profile{
		UserID:    userID,
		Email:     email,
		UpdatedAt: now,
	}
	if _, err := s.profilesCol.InsertOne(ctx, prof); err != nil {
		// If a race created it, fetch again.
		var retry models.Profile
		if err2 := s.profilesCol.FindOne(ctx, bson.M{"user_id": userID}).Decode(&retry); err2 == nil {
			return &retry, nil
		}
		return nil, err
	}
	return &prof, nil
}

func (s *MongoProfileService) Update(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	now := time.Now()

	set := bson.M{"updated_at": now}
	if req.FirstName != nil {
		set["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		set["last_name"] = *req.LastName
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.CurrentDegree != nil {
		set["current_degree"] = *req.CurrentDegree
	}

	res := s.profilesCol.FindOneAndUpdate(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var prof models.Profile
	if err := res.Decode(&prof); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

// CompleteOnboarding writes the wizard's identity and academics results and
// flips the onboarded flag. avatarURL may be empty when no photo was staged.
func (s *MongoProfileService) CompleteOnboarding(ctx context.Context, userID string, identity models.IdentityState, currentDegree, avatarURL string) error {
	set := bson.M{
		"first_name":     identity.FirstName,
		"last_name":      identity.LastName,
		"bio":            identity.Bio,
		"current_degree": currentDegree,
		"onboarded":      true,
		"updated_at":     time.Now(),
	}
	if avatarURL != "" {
		set["avatar_url"] = avatarURL
	}

	_, err := s.profilesCol.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"user_id": userID}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoProfileService) SetAvatarURL(ctx context.Context, userID, url string) error {
	if userID == "" || url == "" {
		return ErrBadInput
	}
	_, err := s.profilesCol.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{"avatar_url": url, "updated_at": time.Now()},
	})
	return err
}

// ClearAvatarIfMatches clears avatar_url only when it still points at url, so
// a stale delete cannot clobber a newer upload.
func (s *MongoProfileService) ClearAvatarIfMatches(ctx context.Context, userID, url string) error {
	if userID == "" || url == "" {
		return nil
	}
	_, err := s.profilesCol.UpdateOne(ctx, bson.M{"user_id": userID, "avatar_url": url}, bson.M{
		"$set": bson.M{"avatar_url": "", "updated_at": time.Now()},
	})
	return err
}

// profileSearchFilter is the "all" search path: case-insensitive substring
// match on names and current degree, restricted to onboarding-completed
// profiles and excluding the requester.
func profileSearchFilter(q, excludeUserID string) bson.M {
	filter := bson.M{
		"onboarded": true,
		"user_id":   bson.M{"$ne": excludeUserID},
	}
	if q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"first_name": pattern},
			bson.M{"last_name": pattern},
			bson.M{"current_degree": pattern},
		}
	}
	return filter
}

func (s *MongoProfileService) Search(ctx context.Context, q, excludeUserID string, offset, limit int64) ([]*models.Profile, error) {
	cur, err := s.profilesCol.Find(
		ctx,
		profileSearchFilter(q, excludeUserID),
		options.Find().
			SetSort(bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}).
			SetSkip(offset).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Profile, 0)
	for cur.Next(ctx) {
		var prof models.Profile
		if err := cur.Decode(&prof); err != nil {
			return nil, err
		}
		out = append(out, &prof)
	}
	return out, cur.Err()
}

// ByUserIDs fetches profiles for a page of owner ids. Only onboarded
// profiles come back; order follows userIDs.
func (s *MongoProfileService) ByUserIDs(ctx context.Context, userIDs []string) ([]*models.Profile, error) {
	if len(userIDs) == 0 {
		return []*models.Profile{}, nil
	}

	cur, err := s.profilesCol.Find(ctx, bson.M{
		"user_id":   bson.M{"$in": userIDs},
		"onboarded": true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	byID := make(map[string]*models.Profile, len(userIDs))
	for cur.Next(ctx) {
		var prof models.Profile
		if err := cur.Decode(&prof); err != nil {
			return nil, err
		}
		p := prof
		byID[prof.UserID] = &p
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Profile, 0, len(byID))
	for _, id := range userIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MongoProfileService) Delete(ctx context.Context, userID string) error {
	_, err := s.profilesCol.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}
