package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/flicky/storefront-api/internal/config"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		fmt.Println("TEST_MONGO_URI not set, skipping integration tests")
		return m.Run()
	}

	ctx := context.Background()
	client, err := Connect(ctx, config.MongoConfig{
		URI:                    uri,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		SocketTimeout:          30 * time.Second,
		MaxPoolSize:            5,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to test database: %v\n", err)
		return 1
	}
	defer client.Disconnect(ctx)

	testDB = client.Database(fmt.Sprintf("storefront_test_%d", time.Now().UnixNano()))
	defer testDB.Drop(ctx)

	if err := EnsureIndexes(ctx, testDB); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create indexes: %v\n", err)
		return 1
	}
	return m.Run()
}

func requireDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_MONGO_URI not set")
	}
	return testDB
}

func cleanupCollections(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := testDB.Collection(name).DeleteMany(context.Background(), bson.M{}); err != nil {
			t.Fatalf("failed to cleanup collection %s: %v", name, err)
		}
	}
}
