// internal/store/mongodb.go
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
	"github.com/valpere/KOLMetrics/pkg/types"
)

// MongoStore persists results in a MongoDB collection. Numeric record
// ids come from a companion counters collection so List ordering stays
// comparable with the SQL backends.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
	counterKey string
	now        func() time.Time
}

// resultDocument is the stored shape; empty metadata fields are
// omitted entirely so a later non-empty value can be told apart from
// an explicit one.
type resultDocument struct {
	ID             int64      `bson:"id"`
	Platform       string     `bson:"platform"`
	URL            string     `bson:"url"`
	Creator        string     `bson:"creator,omitempty"`
	CampaignID     string     `bson:"campaign_id,omitempty"`
	PostedAt       *time.Time `bson:"posted_at,omitempty"`
	Views          int64      `bson:"views"`
	Likes          int64      `bson:"likes"`
	Comments       int64      `bson:"comments"`
	EngagementRate float64    `bson:"engagement_rate"`
	FetchedAt      time.Time  `bson:"fetched_at"`
}

func openMongo(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.DSN == "" {
		return nil, kolerrors.NewConfiguration("mongodb backend requires a connection uri", nil)
	}

	clientOptions := options.Client().ApplyURI(cfg.DSN)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, kolerrors.NewConfiguration("connect to mongodb", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, kolerrors.NewConfiguration("ping mongodb", err)
	}

	db := client.Database(cfg.Database)
	store := &MongoStore{
		client:     client,
		collection: db.Collection(cfg.Table),
		counters:   db.Collection("counters"),
		counterKey: cfg.Table + "_id",
		now:        func() time.Time { return time.Now().UTC() },
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_url"),
	}
	if _, err := store.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		_ = client.Disconnect(ctx)
		return nil, kolerrors.NewConfiguration("create mongodb url index", err)
	}

	return store, nil
}

// Upsert implements Store. The update path is a single atomic
// FindOneAndUpdate; the insert path allocates an id and retries as an
// update if a concurrent insert wins the unique-index race.
func (s *MongoStore) Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	updated, err := s.updateExisting(ctx, result)
	if err == nil {
		return updated, nil
	}
	if err != mongo.ErrNoDocuments {
		return types.StoredResult{}, fmt.Errorf("update result for %s: %w", result.URL, err)
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return types.StoredResult{}, fmt.Errorf("allocate result id: %w", err)
	}

	doc := resultDocument{
		ID:             id,
		Platform:       result.Platform.String(),
		URL:            result.URL,
		Creator:        result.Creator,
		CampaignID:     result.CampaignID,
		PostedAt:       result.PostedAt,
		Views:          result.Views,
		Likes:          result.Likes,
		Comments:       result.Comments,
		EngagementRate: result.EngagementRate,
		FetchedAt:      s.now(),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another writer inserted this URL first.
			updated, err = s.updateExisting(ctx, result)
			if err != nil {
				return types.StoredResult{}, fmt.Errorf("update result for %s: %w", result.URL, err)
			}
			return updated, nil
		}
		return types.StoredResult{}, fmt.Errorf("insert result for %s: %w", result.URL, err)
	}

	return doc.toStoredResult(), nil
}

// updateExisting refreshes the numeric fields unconditionally and the
// creator/campaign/posted_at metadata only when the incoming value is
// present. Returns mongo.ErrNoDocuments when the URL is not stored yet.
func (s *MongoStore) updateExisting(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	set := bson.M{
		"platform":        result.Platform.String(),
		"views":           result.Views,
		"likes":           result.Likes,
		"comments":        result.Comments,
		"engagement_rate": result.EngagementRate,
		"fetched_at":      s.now(),
	}
	if result.Creator != "" {
		set["creator"] = result.Creator
	}
	if result.CampaignID != "" {
		set["campaign_id"] = result.CampaignID
	}
	if result.PostedAt != nil {
		set["posted_at"] = *result.PostedAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc resultDocument
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"url": result.URL},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if err != nil {
		return types.StoredResult{}, err
	}
	return doc.toStoredResult(), nil
}

// nextID reserves the next numeric id from the counters collection.
func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.counterKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// List implements Store.
func (s *MongoStore) List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error) {
	query := bson.M{}
	if filter.Platform != types.PlatformUnknown {
		query["platform"] = filter.Platform.String()
	}
	if filter.Creator != "" {
		query["creator"] = filter.Creator
	}
	if filter.CampaignID != "" {
		query["campaign_id"] = filter.CampaignID
	}

	direction := 1
	if filter.Order == types.OrderDescending {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: direction}})

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer cursor.Close(ctx)

	var results []types.StoredResult
	for cursor.Next(ctx) {
		var doc resultDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode result document: %w", err)
		}
		results = append(results, doc.toStoredResult())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate result documents: %w", err)
	}
	return results, nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (d resultDocument) toStoredResult() types.StoredResult {
	return types.StoredResult{
		ID:        d.ID,
		FetchedAt: d.FetchedAt,
		CanonicalResult: types.CanonicalResult{
			Platform:       types.Platform(d.Platform),
			URL:            d.URL,
			Creator:        d.Creator,
			CampaignID:     d.CampaignID,
			PostedAt:       d.PostedAt,
			Views:          d.Views,
			Likes:          d.Likes,
			Comments:       d.Comments,
			EngagementRate: d.EngagementRate,
		},
	}
}
