package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = bson.NewObjectID()
	}
	_, err := s.collection(CollectionOrders).InsertOne(ctx, order)
	return err
}

func (s *Store) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	if detail.ID.IsZero() {
		detail.ID = bson.NewObjectID()
	}
	_, err := s.collection(CollectionOrderDetails).InsertOne(ctx, detail)
	return err
}

func (s *Store) ListDetailsByUser(ctx context.Context, userID bson.ObjectID) ([]models.OrderDetail, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection(CollectionOrderDetails).Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var details []models.OrderDetail
	if err := cursor.All(ctx, &details); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Store) FindOrders(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Order, error) {
	out := make(map[bson.ObjectID]models.Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	cursor, err := s.collection(CollectionOrders).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	for _, o := range orders {
		out[o.ID] = o
	}
	return out, nil
}
