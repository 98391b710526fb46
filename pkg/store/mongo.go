package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// MongoConfig holds connection settings for MongoStore.
type MongoConfig struct {
	URI        string `toml:"uri" validate:"required"`
	Database   string `toml:"database" validate:"required"`
	Collection string `toml:"collection"`
}

// DefaultCollection is used when MongoConfig.Collection is empty.
const DefaultCollection = "maps"

// MongoStore keeps one MongoDB document per map, keyed by name.
//
// BSON stores times with millisecond precision, so timestamps read back may
// be truncated relative to what was written.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
	now    func() time.Time
}

type mongoRecord struct {
	Name      string            `bson:"_id"`
	Document  snapshot.Document `bson:"document"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// NewMongoStore wraps an existing collection. The caller keeps ownership of
// the client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

// DialMongo connects to MongoDB, checks the connection and returns a store
// that disconnects on Close.
func DialMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	s := NewMongoStore(client.Database(cfg.Database).Collection(name))
	s.client = client
	s.owned = true
	return s, nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (snapshot.Document, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return snapshot.Document{}, errors.NotFound("map", name)
	}
	if err != nil {
		return snapshot.Document{}, fmt.Errorf("find map %q: %w", name, err)
	}
	if err := rec.Document.Validate(); err != nil {
		return snapshot.Document{}, err
	}
	return rec.Document, nil
}

func (s *MongoStore) Put(ctx context.Context, name string, doc snapshot.Document) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	rec := mongoRecord{Name: name, Document: doc, UpdatedAt: s.now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store map %q: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("delete map %q: %w", name, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	var rows []struct {
		Name string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names, nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
