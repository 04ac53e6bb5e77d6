// Package order turns a user's unordered cart lines into a placed order.
//
// A checkout writes the order header, then one detail per cart line followed
// by flipping that line to ordered. The writes are not transactional: when a
// step fails the loop stops and everything already written stays in place.
package order

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// Publisher receives an event for every checkout that consumed all lines.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, evt models.OrderPlacedEvent) error
}

type state string

const (
	stateStart         state = "START"
	stateHeaderCreated state = "ORDER_HEADER_CREATED"
	stateDetailWritten state = "DETAIL_WRITTEN"
	stateLineMarked    state = "CART_LINE_MARKED"
	stateComplete      state = "COMPLETE"
)

const (
	msgPlaceFailed   = "Error placing order"
	msgPartialFailed = "Error processing order, some items may not have been updated correctly"
)

type Service struct {
	carts     store.CartStore
	orders    store.OrderStore
	catalog   store.Catalog
	locker    store.Locker
	publisher Publisher
	log       *zap.Logger
}

type Option func(*Service)

// WithLocker serialises checkouts of the same user.
func WithLocker(l store.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(carts store.CartStore, orders store.OrderStore, catalog store.Catalog, log *zap.Logger, opts ...Option) *Service {
	s := &Service{carts: carts, orders: orders, catalog: catalog, log: log.Named("order")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// checkout tracks one PlaceOrder invocation for logging.
type checkout struct {
	order   *models.Order
	state   state
	details []models.OrderDetail
}

func (c *checkout) fields(err error) []zap.Field {
	fields := []zap.Field{
		zap.String("state", string(c.state)),
		zap.Int("lines_consumed", len(c.details)),
		zap.Error(err),
	}
	if c.order != nil {
		fields = append(fields, zap.String("order_id", c.order.ID.Hex()))
	}
	return fields
}

// PlaceOrder consumes every unordered cart line of the user into a new order.
// A user with nothing in the cart gets an empty cart error; the order header
// written before that check is left behind.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*models.Order, error) {
	uid, err := store.ParseID("userId", userID)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, "checkout:"+uid.Hex())
		if errors.Is(err, store.ErrLocked) {
			return nil, apperr.Conflict("A checkout for this user is already in progress")
		}
		if err != nil {
			s.log.Error("Error acquiring checkout lock", zap.String("user_id", userID), zap.Error(err))
			return nil, apperr.Store(msgPlaceFailed, err)
		}
		defer release()
	}

	log := s.log.With(zap.String("user_id", userID))
	co := &checkout{state: stateStart}

	order := models.NewOrder(uid)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		log.Error(msgPlaceFailed, co.fields(err)...)
		return nil, apperr.Store(msgPlaceFailed, err)
	}
	co.order = order
	co.state = stateHeaderCreated

	lines, err := s.carts.ListUnordered(ctx, uid)
	if err != nil {
		log.Error(msgPlaceFailed, co.fields(err)...)
		return nil, apperr.Store(msgPlaceFailed, err)
	}
	if len(lines) == 0 {
		log.Warn("Order header written for an empty cart", zap.String("order_id", order.ID.Hex()))
		return nil, apperr.EmptyCart("No items in cart to order")
	}

	items, err := s.snapshotItems(ctx, lines)
	if err != nil {
		log.Error(msgPartialFailed, co.fields(err)...)
		return nil, apperr.Store(msgPartialFailed, err)
	}

	for _, line := range lines {
		if err := s.consume(ctx, co, line, items); err != nil {
			log.Error(msgPartialFailed, append(co.fields(err), zap.Int("lines_total", len(lines)))...)
			return nil, apperr.Store(msgPartialFailed, err)
		}
	}
	co.state = stateComplete

	s.publish(ctx, log, co)
	return order, nil
}

func (s *Service) snapshotItems(ctx context.Context, lines []models.CartLine) (map[bson.ObjectID]models.Item, error) {
	ids := make([]bson.ObjectID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	return s.catalog.FindItems(ctx, store.UniqueIDs(ids))
}

// consume writes the detail for one line and then marks the line ordered.
func (s *Service) consume(ctx context.Context, co *checkout, line models.CartLine, items map[bson.ObjectID]models.Item) error {
	item, ok := items[line.ItemID]
	if !ok {
		return fmt.Errorf("cart line %s references missing item %s", line.ID.Hex(), line.ItemID.Hex())
	}

	detail := models.NewOrderDetail(co.order.ID, line, item)
	if err := s.orders.CreateDetail(ctx, detail); err != nil {
		return err
	}
	co.details = append(co.details, *detail)
	co.state = stateDetailWritten

	if err := s.carts.MarkOrdered(ctx, line.ID); err != nil {
		return err
	}
	co.state = stateLineMarked
	return nil
}

// publish never fails the checkout; the order is already committed.
func (s *Service) publish(ctx context.Context, log *zap.Logger, co *checkout) {
	if s.publisher == nil {
		return
	}
	evt := models.NewOrderPlacedEvent(*co.order, co.details)
	if err := s.publisher.PublishOrderPlaced(ctx, evt); err != nil {
		log.Error("Error publishing order event", zap.String("order_id", co.order.ID.Hex()), zap.Error(err))
	}
}
