// Package cart owns every pre-checkout mutation of a user's cart.
package cart

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

type Service struct {
	carts   store.CartStore
	catalog store.Catalog
	log     *zap.Logger
}

func NewService(carts store.CartStore, catalog store.Catalog, log *zap.Logger) *Service {
	return &Service{carts: carts, catalog: catalog, log: log.Named("cart")}
}

// AddResult reports whether Add created a line or topped up an existing one.
type AddResult struct {
	Line    models.CartLine
	Created bool
}

// RemoveResult holds the remaining line when Remove only decremented it.
type RemoveResult struct {
	Removed bool
	Line    *models.CartLine
}

func (s *Service) Add(ctx context.Context, userID, itemID string, qty int) (*AddResult, error) {
	uid, err := store.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}
	iid, err := store.ParseID("itemId", itemID)
	if err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, apperr.Validation("qty", "qty must be a positive integer")
	}
	if qty > store.MaxQuantity {
		return nil, apperr.Validation("qty", "qty is too large")
	}

	line, created, err := s.carts.AddQuantity(ctx, uid, iid, qty)
	if errors.Is(err, store.ErrQuantityLimit) {
		return nil, apperr.Validation("qty", "qty is too large")
	}
	if err != nil {
		s.log.Error("Error adding to cart",
			zap.String("user_id", userID),
			zap.String("item_id", itemID),
			zap.Error(err))
		return nil, apperr.Store("Error adding to cart", err)
	}
	return &AddResult{Line: *line, Created: created}, nil
}

// List returns the user's unordered lines joined with the catalog. An empty
// cart is an empty slice, not an error. Lines whose item no longer exists are
// left out.
func (s *Service) List(ctx context.Context, userID string) ([]models.CartLineView, error) {
	uid, err := store.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.ListUnordered(ctx, uid)
	if err != nil {
		s.log.Error("Error retrieving cart items", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store("Error retrieving cart items", err)
	}
	views := make([]models.CartLineView, 0, len(lines))
	if len(lines) == 0 {
		return views, nil
	}

	ids := make([]bson.ObjectID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	items, err := s.catalog.FindItems(ctx, store.UniqueIDs(ids))
	if err != nil {
		s.log.Error("Error retrieving cart items", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store("Error retrieving cart items", err)
	}

	for _, l := range lines {
		item, ok := items[l.ItemID]
		if !ok {
			s.log.Warn("cart line references a missing item",
				zap.String("cart_id", l.ID.Hex()),
				zap.String("item_id", l.ItemID.Hex()))
			continue
		}
		views = append(views, l.View(item))
	}
	return views, nil
}

// Remove takes one unit off the line, or the whole line when removeAll is set
// or a single unit is left.
func (s *Service) Remove(ctx context.Context, cartID string, removeAll bool) (*RemoveResult, error) {
	id, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.FindUnorderedByID(ctx, id)
	if err != nil {
		return nil, s.lineError("Error removing cart item", cartID, err)
	}

	if removeAll || line.Qty <= 1 {
		if err := s.carts.Delete(ctx, id); err != nil {
			return nil, s.lineError("Error removing cart item", cartID, err)
		}
		return &RemoveResult{Removed: true}, nil
	}

	updated, err := s.carts.IncrementQuantity(ctx, id, -1)
	if errors.Is(err, store.ErrNotFound) {
		// a concurrent remove got the line down to one unit first
		return s.removeLast(ctx, id, cartID)
	}
	if err != nil {
		return nil, s.lineError("Error removing cart item", cartID, err)
	}
	return &RemoveResult{Line: updated}, nil
}

func (s *Service) removeLast(ctx context.Context, id bson.ObjectID, cartID string) (*RemoveResult, error) {
	line, err := s.carts.FindUnorderedByID(ctx, id)
	if err != nil {
		return nil, s.lineError("Error removing cart item", cartID, err)
	}
	if line.Qty > 1 {
		updated, err := s.carts.IncrementQuantity(ctx, id, -1)
		if err != nil {
			return nil, s.lineError("Error removing cart item", cartID, err)
		}
		return &RemoveResult{Line: updated}, nil
	}
	if err := s.carts.Delete(ctx, id); err != nil {
		return nil, s.lineError("Error removing cart item", cartID, err)
	}
	return &RemoveResult{Removed: true}, nil
}

// Update adds a positive increment to the line. Decrements go through Remove.
func (s *Service) Update(ctx context.Context, cartID string, increment int) (*models.CartLine, error) {
	if increment <= 0 {
		return nil, apperr.Validation("increment", "Invalid increment value")
	}
	id, err := parseCartID(cartID)
	if err != nil {
		return nil, err
	}

	line, err := s.carts.FindUnorderedByID(ctx, id)
	if err != nil {
		return nil, s.lineError("Error updating cart item", cartID, err)
	}
	if increment > store.MaxQuantity-line.Qty {
		return nil, apperr.Validation("increment", "Increment would exceed the maximum quantity")
	}
	updated, err := s.carts.IncrementQuantity(ctx, id, increment)
	if errors.Is(err, store.ErrQuantityLimit) {
		return nil, apperr.Validation("increment", "Increment would exceed the maximum quantity")
	}
	if err != nil {
		return nil, s.lineError("Error updating cart item", cartID, err)
	}
	return updated, nil
}

func parseCartID(cartID string) (bson.ObjectID, error) {
	if strings.TrimSpace(cartID) == "" {
		return bson.NilObjectID, apperr.Validation("cartId", "Cart ID is required")
	}
	return store.ParseID("cartId", cartID)
}

func (s *Service) lineError(message, cartID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Cart item not found")
	}
	s.log.Error(message, zap.String("cart_id", cartID), zap.Error(err))
	return apperr.Store(message, err)
}
