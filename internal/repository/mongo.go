package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/Lutefd/currency-data/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const namespaceExistsCode = 48

var duplicateKeyCodes = map[int]struct{}{
	11000: {},
	11001: {},
	12582: {},
}

// BuildURI assembles an Atlas SRV connection string with percent-encoded
// credentials.
func BuildURI(username, password, cluster, appName string) string {
	query := url.Values{}
	query.Set("retryWrites", "true")
	query.Set("w", "majority")
	if appName != "" {
		query.Set("appName", appName)
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(username, password),
		Host:     cluster,
		Path:     "/",
		RawQuery: query.Encode(),
	}
	return u.String()
}

// LoadSchema reads a collection validator document written in extended JSON.
func LoadSchema(path string) (bson.M, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	var schema bson.M
	if err := bson.UnmarshalExtJSON(data, false, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("schema file %s is empty", path)
	}
	return schema, nil
}

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", model.ErrConnection, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: failed to ping database: %v", model.ErrConnection, err)
	}
	return client, nil
}

// ensureCollection creates the collection with its validator, or re-applies
// the validator when the collection already exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	opts := options.CreateCollection()
	if schema != nil {
		opts.SetValidator(schema)
	}
	err := db.CreateCollection(ctx, name, opts)
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExistsCode {
		return err
	}
	if schema == nil {
		return nil
	}
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
	}).Err()
}

func isDuplicateKey(code int) bool {
	_, ok := duplicateKeyCodes[code]
	return ok
}
