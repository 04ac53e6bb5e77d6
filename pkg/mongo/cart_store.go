package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

func openLine(id bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "ordered", Value: false}}
}

// AddQuantity upserts the open line for (userID, itemID) with $inc. Two
// concurrent upserts can both miss and race on insert; the loser hits the
// partial unique index and is replayed once, which then matches the winner.
// The upsert filter also carries the quantity cap, so an existing line that
// cannot take qty more misses too; its replay hits the index again.
func (s *Store) AddQuantity(ctx context.Context, userID, itemID bson.ObjectID, qty int) (*models.CartLine, bool, error) {
	if qty > store.MaxQuantity {
		return nil, false, store.ErrQuantityLimit
	}
	line, created, err := s.upsertLine(ctx, userID, itemID, qty)
	if mongo.IsDuplicateKeyError(err) {
		s.log.Debug("Cart upsert lost insert race, retrying",
			zap.String("user_id", userID.Hex()),
			zap.String("item_id", itemID.Hex()))
		line, created, err = s.upsertLine(ctx, userID, itemID, qty)
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, store.ErrQuantityLimit
		}
	}
	return line, created, err
}

func (s *Store) upsertLine(ctx context.Context, userID, itemID bson.ObjectID, qty int) (*models.CartLine, bool, error) {
	coll := s.collection(CollectionCarts)
	now := time.Now().UTC()

	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "itemId", Value: itemID},
		{Key: "ordered", Value: false},
	}
	// non-equality conditions are not copied into an inserted document
	guarded := append(bson.D{}, filter...)
	guarded = append(guarded, bson.E{Key: "qty", Value: bson.D{{Key: "$lte", Value: store.MaxQuantity - qty}}})
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "qty", Value: qty}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
	}

	res, err := coll.UpdateOne(ctx, guarded, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return nil, false, err
	}

	created := res.UpsertedCount > 0
	if id, ok := res.UpsertedID.(bson.ObjectID); ok {
		filter = bson.D{{Key: "_id", Value: id}}
	}

	var line models.CartLine
	if err := coll.FindOne(ctx, filter).Decode(&line); err != nil {
		return nil, false, notFound(err)
	}
	return &line, created, nil
}

func (s *Store) FindUnorderedByID(ctx context.Context, id bson.ObjectID) (*models.CartLine, error) {
	var line models.CartLine
	if err := s.collection(CollectionCarts).FindOne(ctx, openLine(id)).Decode(&line); err != nil {
		return nil, notFound(err)
	}
	return &line, nil
}

func (s *Store) ListUnordered(ctx context.Context, userID bson.ObjectID) ([]models.CartLine, error) {
	filter := bson.D{{Key: "userId", Value: userID}, {Key: "ordered", Value: false}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection(CollectionCarts).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var lines []models.CartLine
	if err := cursor.All(ctx, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// IncrementQuantity guards the delta in the filter so qty stays within
// [1, MaxQuantity]. A miss on a positive delta is re-checked to tell the cap
// apart from a missing line.
func (s *Store) IncrementQuantity(ctx context.Context, id bson.ObjectID, delta int) (*models.CartLine, error) {
	if delta > store.MaxQuantity {
		return nil, store.ErrQuantityLimit
	}
	filter := openLine(id)
	if delta < 0 {
		filter = append(filter, bson.E{Key: "qty", Value: bson.D{{Key: "$gte", Value: 1 - delta}}})
	} else {
		filter = append(filter, bson.E{Key: "qty", Value: bson.D{{Key: "$lte", Value: store.MaxQuantity - delta}}})
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "qty", Value: delta}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var line models.CartLine
	err := s.collection(CollectionCarts).FindOneAndUpdate(ctx, filter, update, opts).Decode(&line)
	if errors.Is(err, mongo.ErrNoDocuments) && delta > 0 {
		if _, findErr := s.FindUnorderedByID(ctx, id); findErr == nil {
			return nil, store.ErrQuantityLimit
		}
	}
	if err != nil {
		return nil, notFound(err)
	}
	return &line, nil
}

func (s *Store) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := s.collection(CollectionCarts).DeleteOne(ctx, openLine(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkOrdered(ctx context.Context, id bson.ObjectID) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "ordered", Value: true},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	res, err := s.collection(CollectionCarts).UpdateOne(ctx, openLine(id), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
