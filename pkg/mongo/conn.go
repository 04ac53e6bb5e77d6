package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
)

const (
	CollectionCarts        = "carts"
	CollectionOrders       = "orders"
	CollectionOrderDetails = "orderdetails"
	CollectionItems        = "items"
	CollectionUsers        = "users"
)

// Store is the MongoDB implementation of every storage port. Build it with
// Connect and release it with Close.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

var (
	_ store.CartStore     = (*Store)(nil)
	_ store.OrderStore    = (*Store)(nil)
	_ store.Catalog       = (*Store)(nil)
	_ store.UserDirectory = (*Store)(nil)
)

// Connect opens the client and pings the deployment before returning.
func Connect(ctx context.Context, uri, database string, log *zap.Logger) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	log.Info("Connected to MongoDB", zap.String("database", database))
	return &Store{client: client, db: client.Database(database), log: log}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// notFound maps the driver's empty result onto the port sentinel.
func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
