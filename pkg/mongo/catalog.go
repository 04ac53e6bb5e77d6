package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// Items and users are owned by the catalog and account services; this store
// only reads them.

func (s *Store) FindItem(ctx context.Context, id bson.ObjectID) (*models.Item, error) {
	var item models.Item
	if err := s.collection(CollectionItems).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&item); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Store) FindItems(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Item, error) {
	out := make(map[bson.ObjectID]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	cursor, err := s.collection(CollectionItems).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	cursor, err := s.collection(CollectionItems).Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) FindUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.collection(CollectionUsers).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
