package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Struct struct {
	Uri      string `json:"uri"`
	Database string `json:"database"`
}

// OpenDatabase connects to the configured deployment and pings it so a
// bad uri fails at startup instead of on the first request.
func (config Struct) OpenDatabase(ctx context.Context) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	uri := config.Uri
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	database := config.Database
	if database == "" {
		database = "codetrack"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		return nil, err
	}

	return client.Database(database), nil
}
