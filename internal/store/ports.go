// Package store declares the persistence ports the cart, order and query
// services depend on. Implementations live in pkg/mongo and store/memstore.
package store

import (
	"context"
	"errors"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

// ErrNotFound is returned by every port when the addressed document is absent.
var ErrNotFound = errors.New("store: document not found")

// MaxQuantity bounds the qty of a single cart line.
const MaxQuantity = math.MaxInt32

// ErrQuantityLimit is returned when a write would take a line above MaxQuantity.
var ErrQuantityLimit = errors.New("store: quantity limit exceeded")

type CartStore interface {
	// AddQuantity atomically adds qty to the unordered line for (userID, itemID),
	// creating the line when none exists. created reports which path was taken.
	// It returns ErrQuantityLimit when the sum would exceed MaxQuantity.
	AddQuantity(ctx context.Context, userID, itemID bson.ObjectID, qty int) (line *models.CartLine, created bool, err error)
	// FindUnorderedByID returns the line only while it is still unordered.
	FindUnorderedByID(ctx context.Context, id bson.ObjectID) (*models.CartLine, error)
	// ListUnordered returns the user's unordered lines oldest first.
	ListUnordered(ctx context.Context, userID bson.ObjectID) ([]models.CartLine, error)
	// IncrementQuantity applies delta to an unordered line and returns the result.
	// It returns ErrNotFound when the line is gone or delta would take qty below 1,
	// and ErrQuantityLimit when it would take qty above MaxQuantity.
	IncrementQuantity(ctx context.Context, id bson.ObjectID, delta int) (*models.CartLine, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	// MarkOrdered flips an unordered line to ordered. ErrNotFound means the line
	// was already consumed or removed.
	MarkOrdered(ctx context.Context, id bson.ObjectID) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateDetail(ctx context.Context, detail *models.OrderDetail) error
	// ListDetailsByUser returns the user's order details in creation order.
	ListDetailsByUser(ctx context.Context, userID bson.ObjectID) ([]models.OrderDetail, error)
	// FindOrders returns the headers that exist among ids, keyed by id.
	FindOrders(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Order, error)
}

type Catalog interface {
	FindItem(ctx context.Context, id bson.ObjectID) (*models.Item, error)
	// FindItems returns the items that exist among ids, keyed by id.
	FindItems(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
}

type UserDirectory interface {
	FindUser(ctx context.Context, id bson.ObjectID) (*models.User, error)
}

// Locker serialises checkouts per user. Acquire returns ErrLocked when
// another holder owns key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

var ErrLocked = errors.New("store: lock held by another request")
