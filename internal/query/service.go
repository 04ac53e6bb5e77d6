// Package query serves the read-only order history view.
package query

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

const msgFetchFailed = "Error fetching orders"

type Service struct {
	orders store.OrderStore
	users  store.UserDirectory
	log    *zap.Logger
}

func NewService(orders store.OrderStore, users store.UserDirectory, log *zap.Logger) *Service {
	return &Service{orders: orders, users: users, log: log.Named("query")}
}

// ListOrders returns the user's order details in creation order, each joined
// with its order header. Name, price and category are the values captured at
// checkout.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]models.OrderHistoryEntry, error) {
	uid, err := store.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}

	details, err := s.orders.ListDetailsByUser(ctx, uid)
	if err != nil {
		s.log.Error(msgFetchFailed, zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store(msgFetchFailed, err)
	}
	if len(details) == 0 {
		return nil, apperr.NotFound("No orders found for this user")
	}

	ids := make([]bson.ObjectID, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.OrderID)
	}
	headers, err := s.orders.FindOrders(ctx, store.UniqueIDs(ids))
	if err != nil {
		s.log.Error(msgFetchFailed, zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store(msgFetchFailed, err)
	}

	customer := s.customerName(ctx, uid)

	entries := make([]models.OrderHistoryEntry, 0, len(details))
	for _, d := range details {
		header, ok := headers[d.OrderID]
		if !ok {
			s.log.Warn("order detail references a missing order",
				zap.String("detail_id", d.ID.Hex()),
				zap.String("order_id", d.OrderID.Hex()))
			continue
		}
		entry := d.HistoryEntry(header)
		entry.Customer = customer
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, apperr.NotFound("No orders found for this user")
	}
	return entries, nil
}

// customerName is best effort; history is still served without it.
func (s *Service) customerName(ctx context.Context, uid bson.ObjectID) string {
	user, err := s.users.FindUser(ctx, uid)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("Error looking up order customer", zap.String("user_id", uid.Hex()), zap.Error(err))
		}
		return ""
	}
	return user.DisplayName()
}
