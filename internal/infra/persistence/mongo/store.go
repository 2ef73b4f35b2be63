// Package mongo stores samples as documents in a MongoDB collection, the
// native layout of the leafsamples data.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greenleaf/pkg/domain"
)

var _ domain.SampleStore = (*Store)(nil)

const (
	// DefaultURI is used when no connection string is configured.
	DefaultURI = "mongodb://localhost:27017"
	// DefaultDatabase names the database holding the samples collection.
	DefaultDatabase = "greenleaf"
	// Collection is the collection name shared with the other backends' table.
	Collection = "leafsamples"
)

// Store implements domain.SampleStore on a mongo collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore connects to uri, verifies the deployment answers and binds the
// leafsamples collection of database.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		uri = DefaultURI
	}
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, coll: client.Database(database).Collection(Collection)}, nil
}

// NewStoreFromCollection wraps an existing collection. Close leaves the
// owning client connected.
func NewStoreFromCollection(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// List returns every document in natural collection order.
func (s *Store) List(ctx context.Context) ([]domain.Sample, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find samples: %w", err)
	}
	var docs []sampleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	out := make([]domain.Sample, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

// Get loads a single document by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Sample, error) {
	oid, err := objectID(id)
	if err != nil {
		return domain.Sample{}, err
	}
	var doc sampleDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Sample{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return domain.Sample{}, fmt.Errorf("find sample %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// Create inserts the sample under a fresh ObjectID.
func (s *Store) Create(ctx context.Context, sample domain.Sample) (domain.Sample, error) {
	doc := toDocument(sample)
	doc.ID = primitive.NewObjectID()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return domain.Sample{}, fmt.Errorf("insert sample: %w", err)
	}
	return doc.toDomain(), nil
}

// Replace swaps the whole document and returns the stored result.
func (s *Store) Replace(ctx context.Context, id string, sample domain.Sample) (*domain.Sample, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	doc := toDocument(sample)
	doc.ID = primitive.NilObjectID
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var stored sampleDocument
	if err := s.coll.FindOneAndReplace(ctx, bson.M{"_id": oid}, doc, opts).Decode(&stored); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("replace sample %s: %w", id, err)
	}
	out := stored.toDomain()
	out.ID = id
	return &out, nil
}

// Delete removes the document if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete sample %s: %w", id, err)
	}
	return nil
}

// Close disconnects the client when the store owns it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}
