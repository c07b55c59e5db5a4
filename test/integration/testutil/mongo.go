package testutil

import (
	"context"
	"testing"
	"time"

	"smartparking/pkg/client"
	"smartparking/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// MongoHelper gives tests direct access to the service database so they can
// assert on stored documents.
type MongoHelper struct {
	conn     *client.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	conn := client.NewClient()
	err := conn.ConnectMongo(context.Background(), logger.Discard(), client.MongoOptions{
		URI:            mongoURI,
		AppName:        "parking-integration-tests",
		ConnectTimeout: ConnectionTimeout,
	})
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	return &MongoHelper{conn: conn, Database: conn.Mongo.Database(dbName)}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	m.conn.GracefulShutdown(logger.Discard(), opTimeout)
}

// CleanDatabase deletes documents rather than dropping collections, so the
// validators and indexes installed by cmd/migrate survive between tests.
func (m *MongoHelper) CleanDatabase(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*opTimeout)
	defer cancel()

	names, err := m.Database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	for _, name := range names {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			t.Fatalf("clean %s: %v", name, err)
		}
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collection string) int64 {
	t.Helper()
	return m.Count(t, collection, bson.D{})
}

// Count returns the number of documents in collection matching filter.
func (m *MongoHelper) Count(t *testing.T, collection string, filter any) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := m.Database.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return n
}
