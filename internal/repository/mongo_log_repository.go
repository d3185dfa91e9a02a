package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const logsCollection = "logs"

type MongoLogRepository struct {
	client     *mongo.Client
	coll       *mongo.Collection
	ownsClient bool
}

// NewMongoLogRepository writes to the logs collection. A shared client stays
// owned by the caller; with a nil client the repository connects on its own
// and disconnects on Close.
func NewMongoLogRepository(ctx context.Context, uri, database string, client *mongo.Client) (*MongoLogRepository, error) {
	owns := client == nil
	if owns {
		var err error
		client, err = Connect(ctx, uri)
		if err != nil {
			return nil, err
		}
	}

	return &MongoLogRepository{
		client:     client,
		coll:       client.Database(database).Collection(logsCollection),
		ownsClient: owns,
	}, nil
}

func (r *MongoLogRepository) SaveLog(ctx context.Context, log model.Log) error {
	if _, err := r.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to save log: %w", err)
	}
	return nil
}

func (r *MongoLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.DeletedCount, nil
}

func (r *MongoLogRepository) Close() error {
	if !r.ownsClient {
		return nil
	}
	return r.client.Disconnect(context.Background())
}
