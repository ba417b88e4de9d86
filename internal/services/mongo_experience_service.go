package services

import (
	"context"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unilink/backend/internal/models"
)

type MongoExperienceService struct {
	client         *mongo.Client
	db             *mongo.Database
	experiencesCol *mongo.Collection
}

func NewMongoExperienceService(ctx context.Context, mongoURI, dbName string) (*MongoExperienceService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("experiences")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "user_id", Value: 1}}},
	})

	log.Info().Str("db", dbName).Msg("mongodb connected (experiences)")
	return &MongoExperienceService{
		client:         client,
		db:             db,
		experiencesCol: col,
	}, nil
}

func (s *MongoExperienceService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoExperienceService) ListByUserID(ctx context.Context, userID string) ([]models.Experience, error) {
	cur, err := s.experiencesCol.Find(
		ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Experience, 0)
	for cur.Next(ctx) {
		var e models.Experience
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

// ReplaceForUser swaps the user's rows for exactly rows: delete-all then
// re-insert, never a diff. The two writes are not transactional; a failure
// between them leaves the user with no rows, matching the save-again
// recovery model of the forms.
func (s *MongoExperienceService) ReplaceForUser(ctx context.Context, userID string, rows []models.Experience) error {
	if userID == "" {
		return ErrBadInput
	}

	if _, err := s.experiencesCol.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r)
	}
	_, err := s.experiencesCol.InsertMany(ctx, docs)
	return err
}

// OwnerIDs collects the distinct user ids holding a matching experience of
// the given kind, capped at limit. q narrows by substring on title and
// organization.
func (s *MongoExperienceService) OwnerIDs(ctx context.Context, kind models.ExperienceKind, q string, limit int64) ([]string, error) {
	filter := bson.M{"kind": kind}
	if q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"organization": pattern},
		}
	}

	raw, err := s.experiencesCol.Distinct(ctx, "user_id", filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	// Distinct has no server-side ordering; sort for stable pagination.
	sort.Strings(ids)
	if limit > 0 && int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ByUserIDs bulk-fetches rows for a page of owners, grouped by owner id.
func (s *MongoExperienceService) ByUserIDs(ctx context.Context, userIDs []string) (map[string][]models.Experience, error) {
	if len(userIDs) == 0 {
		return map[string][]models.Experience{}, nil
	}

	cur, err := s.experiencesCol.Find(
		ctx,
		bson.M{"user_id": bson.M{"$in": userIDs}},
		options.Find().SetSort(bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string][]models.Experience)
	for cur.Next(ctx) {
		var e models.Experience
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out, cur.Err()
}

func (s *MongoExperienceService) DeleteForUser(ctx context.Context, userID string) error {
	_, err := s.experiencesCol.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
