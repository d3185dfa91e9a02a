package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lutefd/currency-data/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const dateField = "Date"

type MongoConfig struct {
	URI         string
	Database    string
	Collection  string
	Schema      bson.M
	DropOnClose bool
}

type MongoCurrencyRepository struct {
	client      *mongo.Client
	coll        *mongo.Collection
	dropOnClose bool
	disconnect  func(context.Context) error
}

// NewMongoCurrencyRepository prepares the currency collection. A nil client
// makes it connect using cfg.URI; the repository owns the client either way.
func NewMongoCurrencyRepository(ctx context.Context, cfg MongoConfig, client *mongo.Client) (*MongoCurrencyRepository, error) {
	if client == nil {
		var err error
		client, err = Connect(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
	}

	db := client.Database(cfg.Database)
	if err := ensureCollection(ctx, db, cfg.Collection, cfg.Schema); err != nil {
		return nil, fmt.Errorf("%w: failed to create collection %s: %v", model.ErrConnection, cfg.Collection, err)
	}

	coll := db.Collection(cfg.Collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: dateField, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create date index: %v", model.ErrConnection, err)
	}

	return &MongoCurrencyRepository{
		client:      client,
		coll:        coll,
		dropOnClose: cfg.DropOnClose,
		disconnect:  client.Disconnect,
	}, nil
}

// Client returns the connection the repository owns, for collaborators that
// share it without taking over its lifecycle.
func (r *MongoCurrencyRepository) Client() *mongo.Client {
	return r.client
}

func (r *MongoCurrencyRepository) InsertMany(ctx context.Context, records []model.CurrencyObject) (InsertResult, error) {
	if len(records) == 0 {
		return InsertResult{}, nil
	}
	docs := make([]interface{}, len(records))
	for i := range records {
		docs[i] = records[i]
	}

	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return InsertResult{Inserted: len(res.InsertedIDs)}, nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) || bulkErr.WriteConcernError != nil {
		return InsertResult{}, fmt.Errorf("%w: failed to insert currency data: %v", model.ErrPersistence, err)
	}

	result := InsertResult{Inserted: len(records)}
	for _, writeErr := range bulkErr.WriteErrors {
		if !isDuplicateKey(writeErr.Code) || writeErr.Index < 0 || writeErr.Index >= len(records) {
			return InsertResult{}, fmt.Errorf("%w: failed to insert currency data: %v", model.ErrPersistence, err)
		}
		result.Inserted--
		result.Duplicates = append(result.Duplicates, records[writeErr.Index].Date)
	}
	return result, nil
}

func (r *MongoCurrencyRepository) DeleteByDate(ctx context.Context, date time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{dateField: model.NormalizeDate(date)})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to delete currency data: %v", model.ErrPersistence, err)
	}
	return res.DeletedCount, nil
}

// Find returns the records for date, or the limit most recent ones when date
// is nil.
func (r *MongoCurrencyRepository) Find(ctx context.Context, date *time.Time, limit int64) ([]model.CurrencyObject, error) {
	filter := bson.M{}
	opts := options.Find()
	if date != nil {
		filter[dateField] = model.NormalizeDate(*date)
	} else {
		opts.SetSort(bson.D{{Key: dateField, Value: -1}}).SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find currency data: %v", model.ErrPersistence, err)
	}
	defer cursor.Close(ctx)

	var records []model.CurrencyObject
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode currency data: %v", model.ErrPersistence, err)
	}
	if records == nil {
		records = []model.CurrencyObject{}
	}
	return records, nil
}

func (r *MongoCurrencyRepository) ExistsByDate(ctx context.Context, date time.Time) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.coll.FindOne(ctx, bson.M{dateField: model.NormalizeDate(date)}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to look up date: %v", model.ErrPersistence, err)
	}
	return true, nil
}

func (r *MongoCurrencyRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close drops the collection when configured to, then disconnects. A failed
// drop does not prevent the disconnect.
func (r *MongoCurrencyRepository) Close(ctx context.Context) error {
	var dropErr error
	if r.dropOnClose {
		if err := r.coll.Drop(ctx); err != nil {
			dropErr = fmt.Errorf("failed to drop collection %s: %w", r.coll.Name(), err)
		}
	}
	disconnect := r.disconnect
	if disconnect == nil {
		disconnect = r.client.Disconnect
	}
	if err := disconnect(ctx); err != nil {
		return errors.Join(dropErr, fmt.Errorf("failed to disconnect: %w", err))
	}
	return dropErr
}
