package archive

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meshview/meshview/pkg/errors"
)

// MongoStore persists records in a MongoDB collection. Records are small
// (a few hundred KB for a large mesh) so the whole snapshot lives in one
// document.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and uses the given database and
// collection. The connection is verified with a ping before returning.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "connect to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "ping %s", uri)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Save persists the record and returns its assigned ID.
func (s *MongoStore) Save(ctx context.Context, rec Record) (string, error) {
	rec.ID = uuid.NewString()
	rec.NodeCount = len(rec.Snapshot.Nodes)
	rec.LinkCount = len(rec.Snapshot.Links)

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return "", errors.Wrap(errors.ErrCodeArchive, err, "save snapshot")
	}
	return rec.ID, nil
}

// Get loads one record by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return Record{}, errors.New(errors.ErrCodeNotFound, "archived snapshot %s", id)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeArchive, err, "load snapshot %s", id)
	}
	return rec, nil
}

// List returns record metadata, newest first, without payloads.
func (s *MongoStore) List(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "taken", Value: -1}}).
		SetProjection(bson.M{"snapshot": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var recs []Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeArchive, err, "decode snapshot list")
	}
	return recs, nil
}

// Prune removes the oldest records beyond keep.
func (s *MongoStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}

	// Find the cutoff by skipping the newest keep records.
	opts := options.Find().
		SetSort(bson.D{{Key: "taken", Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeArchive, err, "prune snapshots")
	}
	defer cur.Close(ctx)

	var stale []Record
	if err := cur.All(ctx, &stale); err != nil {
		return 0, errors.Wrap(errors.ErrCodeArchive, err, "prune snapshots")
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, len(stale))
	for i, r := range stale {
		ids[i] = r.ID
	}
	res, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeArchive, err, "prune snapshots")
	}
	return int(res.DeletedCount), nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
