package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cmwn/skramble/pkg/errors"
)

const defaultCollection = "runs"

// Mongo persists run records in a MongoDB collection keyed by skribble id.
type Mongo struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongo connects to the given MongoDB URI and verifies the connection.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to run ledger")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping run ledger")
	}
	return &Mongo{
		client: client,
		runs:   client.Database(database).Collection(defaultCollection),
	}, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) upsert(ctx context.Context, skribbleID string, rec Record) error {
	rec.SkribbleID = skribbleID
	rec.UpdatedAt = time.Now().UTC()

	_, err := m.runs.UpdateOne(ctx,
		bson.M{"skribble_id": skribbleID},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "record run %s", skribbleID)
	}
	return nil
}

// Begin implements Ledger.
func (m *Mongo) Begin(ctx context.Context, skribbleID string) error {
	return m.upsert(ctx, skribbleID, Record{
		Status:    StatusProcessing,
		StartedAt: time.Now().UTC(),
	})
}

// Complete implements Ledger.
func (m *Mongo) Complete(ctx context.Context, skribbleID, objectKey string) error {
	rec, err := m.Get(ctx, skribbleID)
	if err != nil {
		rec = &Record{StartedAt: time.Now().UTC()}
	}
	rec.Status = StatusSuccess
	rec.ObjectKey = objectKey
	rec.ErrorCode = ""
	rec.Message = ""
	return m.upsert(ctx, skribbleID, *rec)
}

// Fail implements Ledger.
func (m *Mongo) Fail(ctx context.Context, skribbleID, code, message string) error {
	rec, err := m.Get(ctx, skribbleID)
	if err != nil {
		rec = &Record{StartedAt: time.Now().UTC()}
	}
	rec.Status = StatusError
	rec.ErrorCode = code
	rec.Message = message
	return m.upsert(ctx, skribbleID, *rec)
}

// Get implements Ledger.
func (m *Mongo) Get(ctx context.Context, skribbleID string) (*Record, error) {
	var rec Record
	err := m.runs.FindOne(ctx, bson.M{"skribble_id": skribbleID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load run %s", skribbleID)
	}
	return &rec, nil
}
