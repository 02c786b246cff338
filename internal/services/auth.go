package services

import (
	"context"
	"errors"
	"time"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	ErrInvalidAPIKey  = errors.New("invalid API key")
	ErrInactiveAPIKey = errors.New("API key is inactive")
	ErrDatabaseError  = errors.New("database error")
)

// AuthService handles API key authentication using MongoDB
type AuthService struct {
	db         *mongo.Database
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

// NewAuthService creates a new authentication service with optimized MongoDB connection
func NewAuthService(cfg *config.MongoDBConfig) (*AuthService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)

	// Connection pool optimization
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MaxPoolSize / 4)
	clientOptions.SetMaxConnIdleTime(30 * time.Minute)
	clientOptions.SetMaxConnecting(cfg.MaxPoolSize / 2)

	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetSocketTimeout(30 * time.Second)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetHeartbeatInterval(10 * time.Second)

	clientOptions.SetCompressors([]string{"snappy", "zlib", "zstd"})
	clientOptions.SetReadPreference(readpref.SecondaryPreferred())
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)
	collection := db.Collection(cfg.APIKeyCollection)

	// Unique index on key for fast lookups; may already exist
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = collection.Indexes().CreateOne(ctx, indexModel)

	return &AuthService{
		db:         db,
		collection: collection,
		config:     cfg,
	}, nil
}

// ValidateAPIKey validates an API key against the MongoDB database
func (a *AuthService) ValidateAPIKey(key string) (*models.APIKey, error) {
	if key == "" {
		return nil, ErrInvalidAPIKey
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.config.OperationTimeout)
	defer cancel()

	var apiKey models.APIKey
	filter := bson.M{"key": key}

	err := a.collection.FindOne(ctx, filter).Decode(&apiKey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidAPIKey
		}
		return nil, ErrDatabaseError
	}

	if !apiKey.Active {
		return nil, ErrInactiveAPIKey
	}

	// Update last used timestamp off the request path
	go a.updateLastUsed(apiKey.ID)

	return &apiKey, nil
}

// updateLastUsed updates the last_used timestamp for an API key
func (a *AuthService) updateLastUsed(id interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.OperationTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"last_used": time.Now()}}

	a.collection.UpdateOne(ctx, filter, update)
}

// Ping verifies the MongoDB connection is alive
func (a *AuthService) Ping(ctx context.Context) error {
	return a.db.Client().Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (a *AuthService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return a.db.Client().Disconnect(ctx)
}
