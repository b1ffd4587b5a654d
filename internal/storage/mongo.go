package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsadvisor/internal/models"
)

// Compile-time interface check.
var _ Store = (*MongoStore)(nil)

// MongoStore implements Store on a MongoDB database with the `feeds` and
// `llm_request_responses` collections.
type MongoStore struct {
	client    *mongo.Client
	feeds     *mongo.Collection
	responses *mongo.Collection
}

// feedDoc is the BSON shape of a persisted feed item.
type feedDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Link        string             `bson:"link"`
	Summary     string             `bson:"summary"`
	Category    string             `bson:"category"`
	ContentHash string             `bson:"content_hash"`
	Processed   bool               `bson:"processed"`
	PublishedAt time.Time          `bson:"published_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// responseDoc is the BSON shape of a persisted exchange record.
type responseDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Prompt         string             `bson:"prompt"`
	PromptResponse string             `bson:"prompt_response"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// OpenMongo connects to the MongoDB deployment at the given URI and returns
// a store over the named database. The content_hash index is created on
// startup so hash membership queries stay cheap as history grows.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client:    client,
		feeds:     db.Collection("feeds"),
		responses: db.Collection("llm_request_responses"),
	}

	if err := store.createIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	slog.Info("connected to mongodb", "database", database)
	return store, nil
}

// createIndexes ensures the unique content_hash index on feeds and the
// created_at index on responses exist.
func (s *MongoStore) createIndexes(ctx context.Context) error {
	_, err := s.feeds.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "content_hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating content_hash index: %w", err)
	}

	_, err = s.responses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating created_at index: %w", err)
	}

	return nil
}

// Close disconnects from the MongoDB deployment.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ExistingHashes returns which of the given content hashes already exist in
// the feeds collection.
func (s *MongoStore) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	cursor, err := s.feeds.Find(ctx,
		bson.M{"content_hash": bson.M{"$in": hashes}},
		options.Find().SetProjection(bson.M{"content_hash": 1}))
	if err != nil {
		return nil, fmt.Errorf("querying existing hashes: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ContentHash string `bson:"content_hash"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding content hash: %w", err)
		}
		existing[doc.ContentHash] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating existing hashes: %w", err)
	}

	return existing, nil
}

// SaveFeedItems batch-inserts feed items with store-assigned timestamps.
func (s *MongoStore) SaveFeedItems(ctx context.Context, items []models.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]any, len(items))
	for i, item := range items {
		docs[i] = feedDoc{
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Summary,
			Category:    string(item.Category),
			ContentHash: item.ContentHash,
			Processed:   item.Processed,
			PublishedAt: item.PublishedAt.UTC(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if _, err := s.feeds.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting feed items: %w", err)
	}
	return nil
}

// MarkFeedsProcessed flips processed to true for all feed items with the
// given content hashes.
func (s *MongoStore) MarkFeedsProcessed(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}

	_, err := s.feeds.UpdateMany(ctx,
		bson.M{"content_hash": bson.M{"$in": hashes}},
		bson.M{"$set": bson.M{"processed": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("marking feeds processed: %w", err)
	}
	return nil
}

// SaveRequestResponse appends one exchange record.
func (s *MongoStore) SaveRequestResponse(ctx context.Context, rec *models.RequestResponseRecord) error {
	now := time.Now().UTC()
	doc := responseDoc{
		Prompt:         rec.Prompt,
		PromptResponse: rec.PromptResponse,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := s.responses.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("inserting request response: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = id.Hex()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// ResponsesForDay returns all exchange records created within the UTC
// calendar day containing the given instant, newest first.
func (s *MongoStore) ResponsesForDay(ctx context.Context, day time.Time) ([]models.RequestResponseRecord, error) {
	start, end := dayBoundsUTC(day)

	cursor, err := s.responses.Find(ctx,
		bson.M{"created_at": bson.M{"$gte": start, "$lt": end}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.RequestResponseRecord
	for cursor.Next(ctx) {
		var doc responseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding response record: %w", err)
		}
		records = append(records, models.RequestResponseRecord{
			ID:             doc.ID.Hex(),
			Prompt:         doc.Prompt,
			PromptResponse: doc.PromptResponse,
			CreatedAt:      doc.CreatedAt,
			UpdatedAt:      doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating response records: %w", err)
	}

	return records, nil
}
