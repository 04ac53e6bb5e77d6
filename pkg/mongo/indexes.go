package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Carts
	// One unordered line per (user, item). Ordered lines are history and may repeat.
	{
		CollectionName: CollectionCarts,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "itemId", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("idx_cart_open_line_unique").
				SetPartialFilterExpression(bson.D{{Key: "ordered", Value: false}}),
		},
	},
	// Cart listing and checkout read, oldest first
	{
		CollectionName: CollectionCarts,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "ordered", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_cart_user_open"),
		},
	},

	// Order details
	// Order history per user in creation order
	{
		CollectionName: CollectionOrderDetails,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: 1},
			},
			Options: options.Index().SetName("idx_detail_user_history"),
		},
	},
	{
		CollectionName: CollectionOrderDetails,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("idx_detail_order"),
		},
	},

	// Orders
	{
		CollectionName: CollectionOrders,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "orderDate", Value: -1},
			},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
}

// EnsureIndexes creates every required index. CreateOne is a no-op for an
// index that already exists with the same definition.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	s.log.Info("Starting index creation")

	for _, idxConfig := range requiredIndexes {
		indexName, err := s.collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, err)
		}
		s.log.Info("Created index",
			zap.String("index", indexName),
			zap.String("collection", idxConfig.CollectionName))
	}

	s.log.Info("All indexes created successfully")
	return nil
}
