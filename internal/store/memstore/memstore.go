// Package memstore keeps every storage port in process memory. It backs the
// STORE_DRIVER=memory mode and the service tests, which use InjectFault to
// make individual operations fail.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

type Op string

const (
	OpAddQuantity       Op = "AddQuantity"
	OpFindCartLine      Op = "FindUnorderedByID"
	OpListCart          Op = "ListUnordered"
	OpIncrementQuantity Op = "IncrementQuantity"
	OpDeleteCartLine    Op = "Delete"
	OpMarkOrdered       Op = "MarkOrdered"
	OpCreateOrder       Op = "CreateOrder"
	OpCreateDetail      Op = "CreateDetail"
	OpListDetails       Op = "ListDetailsByUser"
	OpFindOrders        Op = "FindOrders"
	OpFindItem          Op = "FindItem"
	OpFindItems         Op = "FindItems"
	OpListItems         Op = "ListItems"
	OpFindUser          Op = "FindUser"
)

type fault struct {
	after int
	calls int
	err   error
}

type Store struct {
	mu sync.Mutex

	carts   []*models.CartLine
	orders  []*models.Order
	details []*models.OrderDetail

	items     map[bson.ObjectID]models.Item
	itemOrder []bson.ObjectID
	users     map[bson.ObjectID]models.User

	locks  map[string]struct{}
	faults map[Op]*fault
}

var (
	_ store.CartStore     = (*Store)(nil)
	_ store.OrderStore    = (*Store)(nil)
	_ store.Catalog       = (*Store)(nil)
	_ store.UserDirectory = (*Store)(nil)
	_ store.Locker        = (*Store)(nil)
)

func New() *Store {
	return &Store{
		items:  make(map[bson.ObjectID]models.Item),
		users:  make(map[bson.ObjectID]models.User),
		locks:  make(map[string]struct{}),
		faults: make(map[Op]*fault),
	}
}

// InjectFault lets the first `after` calls of op succeed and fails every later
// call with err until ClearFaults.
func (s *Store) InjectFault(op Op, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{after: after, err: err}
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[Op]*fault)
}

// check must be called with mu held.
func (s *Store) check(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls > f.after {
		return f.err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Seeding and inspection helpers.

func (s *Store) PutItem(item models.Item) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = bson.NewObjectID()
	}
	if _, exists := s.items[item.ID]; !exists {
		s.itemOrder = append(s.itemOrder, item.ID)
	}
	s.items[item.ID] = item
	return item
}

func (s *Store) DeleteItem(id bson.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	for i, existing := range s.itemOrder {
		if existing == id {
			s.itemOrder = append(s.itemOrder[:i], s.itemOrder[i+1:]...)
			break
		}
	}
}

func (s *Store) PutUser(user models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	s.users[user.ID] = user
	return user
}

// CartLines returns every line, ordered ones included.
func (s *Store) CartLines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartLine, 0, len(s.carts))
	for _, l := range s.carts {
		out = append(out, *l)
	}
	return out
}

func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

func (s *Store) Details() []models.OrderDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OrderDetail, 0, len(s.details))
	for _, d := range s.details {
		out = append(out, *d)
	}
	return out
}

// Cart store.

func (s *Store) AddQuantity(ctx context.Context, userID, itemID bson.ObjectID, qty int) (*models.CartLine, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpAddQuantity); err != nil {
		return nil, false, err
	}

	for _, l := range s.carts {
		if l.UserID == userID && l.ItemID == itemID && !l.Ordered {
			if qty > store.MaxQuantity-l.Qty {
				return nil, false, store.ErrQuantityLimit
			}
			l.Qty += qty
			l.UpdatedAt = time.Now().UTC()
			line := *l
			return &line, false, nil
		}
	}

	if qty > store.MaxQuantity {
		return nil, false, store.ErrQuantityLimit
	}
	l := &models.CartLine{
		ID:     bson.NewObjectID(),
		UserID: userID,
		ItemID: itemID,
		Qty:    qty,
	}
	l.SetTimestamps()
	s.carts = append(s.carts, l)
	line := *l
	return &line, true, nil
}

func (s *Store) findUnordered(id bson.ObjectID) (int, *models.CartLine) {
	for i, l := range s.carts {
		if l.ID == id && !l.Ordered {
			return i, l
		}
	}
	return -1, nil
}

func (s *Store) FindUnorderedByID(ctx context.Context, id bson.ObjectID) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpFindCartLine); err != nil {
		return nil, err
	}
	_, l := s.findUnordered(id)
	if l == nil {
		return nil, store.ErrNotFound
	}
	line := *l
	return &line, nil
}

func (s *Store) ListUnordered(ctx context.Context, userID bson.ObjectID) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpListCart); err != nil {
		return nil, err
	}
	var out []models.CartLine
	for _, l := range s.carts {
		if l.UserID == userID && !l.Ordered {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *Store) IncrementQuantity(ctx context.Context, id bson.ObjectID, delta int) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpIncrementQuantity); err != nil {
		return nil, err
	}
	_, l := s.findUnordered(id)
	if l == nil || delta < 1-l.Qty {
		return nil, store.ErrNotFound
	}
	if delta > store.MaxQuantity-l.Qty {
		return nil, store.ErrQuantityLimit
	}
	l.Qty += delta
	l.UpdatedAt = time.Now().UTC()
	line := *l
	return &line, nil
}

func (s *Store) Delete(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpDeleteCartLine); err != nil {
		return err
	}
	i, _ := s.findUnordered(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.carts = append(s.carts[:i], s.carts[i+1:]...)
	return nil
}

func (s *Store) MarkOrdered(ctx context.Context, id bson.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpMarkOrdered); err != nil {
		return err
	}
	_, l := s.findUnordered(id)
	if l == nil {
		return store.ErrNotFound
	}
	l.Ordered = true
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// Order store.

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpCreateOrder); err != nil {
		return err
	}
	if order.ID.IsZero() {
		order.ID = bson.NewObjectID()
	}
	o := *order
	s.orders = append(s.orders, &o)
	return nil
}

func (s *Store) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpCreateDetail); err != nil {
		return err
	}
	if detail.ID.IsZero() {
		detail.ID = bson.NewObjectID()
	}
	d := *detail
	s.details = append(s.details, &d)
	return nil
}

func (s *Store) ListDetailsByUser(ctx context.Context, userID bson.ObjectID) ([]models.OrderDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpListDetails); err != nil {
		return nil, err
	}
	var out []models.OrderDetail
	for _, d := range s.details {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	// insertion order already is creation order; the stable sort keeps ties that way
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindOrders(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpFindOrders); err != nil {
		return nil, err
	}
	wanted := make(map[bson.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make(map[bson.ObjectID]models.Order)
	for _, o := range s.orders {
		if _, ok := wanted[o.ID]; ok {
			out[o.ID] = *o
		}
	}
	return out, nil
}

// Catalog and user directory.

func (s *Store) FindItem(ctx context.Context, id bson.ObjectID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpFindItem); err != nil {
		return nil, err
	}
	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *Store) FindItems(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpFindItems); err != nil {
		return nil, err
	}
	out := make(map[bson.ObjectID]models.Item, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpListItems); err != nil {
		return nil, err
	}
	out := make([]models.Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *Store) FindUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpFindUser); err != nil {
		return nil, err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

// Locker.

func (s *Store) Acquire(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, held := s.locks[key]; held {
		return nil, store.ErrLocked
	}
	s.locks[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locks, key)
			s.mu.Unlock()
		})
	}, nil
}
