// database/mongo.go
package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var client *mongo.Client
var databaseName string

// Connect establishes connection to MongoDB with proper configuration
func Connect(uri, db string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(200).
		SetMinPoolSize(20).
		SetMaxConnIdleTime(30 * time.Second).       // Close idle connections after 30s
		SetServerSelectionTimeout(5 * time.Second). // Fail fast if server unavailable
		SetSocketTimeout(15 * time.Second)          // Individual query timeout

	var err error
	client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	// Verify connection with ping
	if err = client.Ping(ctx, nil); err != nil {
		return err
	}

	databaseName = db
	log.Println("✅ Connected to MongoDB with connection pool configured")
	return nil
}

// Disconnect closes the MongoDB connection gracefully
func Disconnect() error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return client.Disconnect(ctx)
}

// GetDatabase returns the database instance
func GetDatabase() *mongo.Database {
	if client == nil {
		log.Fatal("❌ MongoDB client not initialized. Call Connect() first.")
	}
	return client.Database(databaseName)
}

// GetUserCollection returns the users collection
func GetUserCollection() *mongo.Collection {
	return GetDatabase().Collection("users")
}

// GetDownloadCollection returns the downloads audit log collection
func GetDownloadCollection() *mongo.Collection {
	return GetDatabase().Collection("downloads")
}

// GetPaymentPendingCollection returns the paymentPending collection
func GetPaymentPendingCollection() *mongo.Collection {
	return GetDatabase().Collection("paymentPending")
}

// GetPaymentSuccessCollection returns the paymentSuccess collection
func GetPaymentSuccessCollection() *mongo.Collection {
	return GetDatabase().Collection("paymentSuccess")
}

// HealthCheck verifies MongoDB connection is alive
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return mongo.ErrClientDisconnected
	}
	return client.Ping(ctx, nil)
}
