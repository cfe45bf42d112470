package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// MongoStore persists snapshots and templates in two MongoDB collections.
// Snapshot listings sort on created_at descending server-side.
type MongoStore struct {
	versions  *mongo.Collection
	templates *mongo.Collection
	now       func() time.Time
}

// NewMongoStore connects to uri and uses the named database. The
// connection is verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	return &MongoStore{
		versions:  db.Collection("versions"),
		templates: db.Collection("templates"),
		now:       time.Now,
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.versions.Database().Client().Disconnect(ctx)
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, l diagram.Layout, note string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Note:      note,
		Layout:    l,
		CreatedAt: s.now(),
	}
	if _, err := s.versions.InsertOne(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

func (s *MongoStore) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.versions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Snapshot
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return out, nil
}

func (s *MongoStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.versions.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}

func (s *MongoStore) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.versions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return nil
}

func (s *MongoStore) SaveTemplate(ctx context.Context, name string, l diagram.Layout) (*Template, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	now := s.now()
	update := bson.M{
		"$set": bson.M{
			"layout":     l,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.templates.UpdateByID(ctx, name, update, opts); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return s.GetTemplate(ctx, name)
}

func (s *MongoStore) GetTemplate(ctx context.Context, name string) (*Template, error) {
	var t Template
	err := s.templates.FindOne(ctx, bson.M{"_id": name}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

func (s *MongoStore) ListTemplates(ctx context.Context) ([]*Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.templates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer cur.Close(ctx)

	var out []*Template
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return out, nil
}

func (s *MongoStore) DeleteTemplate(ctx context.Context, name string) error {
	res, err := s.templates.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return nil
}

var (
	_ VersionStore  = (*MongoStore)(nil)
	_ TemplateStore = (*MongoStore)(nil)
)
