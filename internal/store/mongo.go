package store

import (
	"context"
	"fmt"
	"time"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSettingsStore is the durable remote store backed by MongoDB
type MongoSettingsStore struct {
	client   *mongo.Client
	profiles *mongo.Collection
	wallets  *mongo.Collection
	config   *config.MongoDBConfig
}

// NewMongoSettingsStore connects to MongoDB and prepares the profile and
// wallet collections
func NewMongoSettingsStore(cfg *config.MongoDBConfig) (*MongoSettingsStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOptions.SetMinPoolSize(cfg.MaxPoolSize / 4)
	clientOptions.SetConnectTimeout(cfg.ConnectTimeout)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.Database)
	wallets := db.Collection(cfg.WalletCollection)

	// Wallets are keyed by (user_id, wallet_address); the index also backs
	// the per-user listing.
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "wallet_address", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	// Index might already exist, which is fine
	_, _ = wallets.Indexes().CreateOne(ctx, indexModel)

	return &MongoSettingsStore{
		client:   client,
		profiles: db.Collection(cfg.ProfileCollection),
		wallets:  wallets,
		config:   cfg,
	}, nil
}

func (s *MongoSettingsStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.OperationTimeout)
}

// GetProfile implements SettingsStore
func (s *MongoSettingsStore) GetProfile(ctx context.Context, userID string) (*models.RemoteProfile, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	var profile models.RemoteProfile
	err := s.profiles.FindOne(opCtx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	return &profile, nil
}

// UpsertProfile implements SettingsStore
func (s *MongoSettingsStore) UpsertProfile(ctx context.Context, profile *models.RemoteProfile) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"display_name":     profile.DisplayName,
		"profile_image":    profile.ProfileImage,
		"background_image": profile.BackgroundImage,
		"updated_at":       time.Now().UTC(),
	}}

	_, err := s.profiles.UpdateOne(opCtx, bson.M{"_id": profile.UserID}, update,
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.UserID, err)
	}
	return nil
}

// ListWallets implements SettingsStore
func (s *MongoSettingsStore) ListWallets(ctx context.Context, userID string) ([]models.RemoteWallet, error) {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.wallets.Find(opCtx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list wallets for %s: %w", userID, err)
	}
	defer cursor.Close(opCtx)

	var wallets []models.RemoteWallet
	if err := cursor.All(opCtx, &wallets); err != nil {
		return nil, fmt.Errorf("decode wallets for %s: %w", userID, err)
	}

	return wallets, nil
}

// InsertWallet implements SettingsStore
func (s *MongoSettingsStore) InsertWallet(ctx context.Context, wallet models.RemoteWallet) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}

	if _, err := s.wallets.InsertOne(opCtx, wallet); err != nil {
		return fmt.Errorf("insert wallet %s: %w", wallet.WalletAddress, err)
	}
	return nil
}

// UpdateWalletDefault implements SettingsStore
func (s *MongoSettingsStore) UpdateWalletDefault(ctx context.Context, id string, isDefault bool) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_default": isDefault}}
	if _, err := s.wallets.UpdateOne(opCtx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("update wallet %s: %w", id, err)
	}
	return nil
}

// DeleteWallet implements SettingsStore
func (s *MongoSettingsStore) DeleteWallet(ctx context.Context, id string) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.wallets.DeleteOne(opCtx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete wallet %s: %w", id, err)
	}
	return nil
}

// Ping verifies the MongoDB connection is alive
func (s *MongoSettingsStore) Ping(ctx context.Context) error {
	opCtx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.client.Ping(opCtx, nil)
}

// Close disconnects the underlying client
func (s *MongoSettingsStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
