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

	"github.com/dendrotool/dendro/pkg/export"
)

// MongoStore persists trees in a MongoDB collection, one document per tree.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc mirrors fileDoc for the Mongo backend, with the ID promoted to
// the document key.
type mongoDoc struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	Nodes     int             `bson:"nodes"`
	CreatedAt time.Time       `bson:"created_at"`
	Tree      export.Document `bson:"tree"`
}

// NewMongoStore connects to the MongoDB instance at uri and uses the trees
// collection of the given database. The connection is verified with a ping.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("trees"),
	}, nil
}

// Save stores doc under a fresh UUID and returns it.
func (s *MongoStore) Save(ctx context.Context, name string, doc export.Document) (string, error) {
	id := uuid.NewString()
	_, err := s.coll.InsertOne(ctx, mongoDoc{
		ID:        id,
		Name:      name,
		Nodes:     len(doc.Nodes),
		CreatedAt: time.Now().UTC(),
		Tree:      doc,
	})
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	return id, nil
}

// Load retrieves a stored tree by ID.
func (s *MongoStore) Load(ctx context.Context, id string) (export.Document, error) {
	var stored mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return export.Document{}, fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return export.Document{}, fmt.Errorf("mongo find: %w", err)
	}
	return stored.Tree, nil
}

// List returns metadata for all stored trees, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Meta, error) {
	opts := options.Find().
		SetProjection(bson.M{"tree": 0}).
		SetSort(bson.M{"created_at": -1})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cursor.Close(ctx)

	var metas []Meta
	for cursor.Next(ctx) {
		var stored mongoDoc
		if err := cursor.Decode(&stored); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		metas = append(metas, Meta{
			ID:        stored.ID,
			Name:      stored.Name,
			Nodes:     stored.Nodes,
			CreatedAt: stored.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	return metas, nil
}

// Delete removes a stored tree.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ TreeStore = (*MongoStore)(nil)
