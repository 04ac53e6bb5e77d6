package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/internal/store/memstore"
	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
	"julianmorley.ca/con-plar/eatathome/pkg/models"
)

func newTestService() (*Service, *memstore.Store) {
	db := memstore.New()
	return NewService(db, db, zap.NewNop()), db
}

func TestAddSameItemTwiceKeepsOneLine(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	user := bson.NewObjectID().Hex()
	item := db.PutItem(models.Item{Name: "Butter Chicken", Price: 14.5})

	first, err := svc.Add(ctx, user, item.ID.Hex(), 2)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Add(ctx, user, item.ID.Hex(), 3)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Line.ID, second.Line.ID)
	assert.Equal(t, 5, second.Line.Qty)

	lines := db.CartLines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Qty)
	assert.False(t, lines[0].Ordered)
}

func TestAddConcurrentRequestsDoNotDuplicate(t *testing.T) {
	svc, db := newTestService()
	user := bson.NewObjectID().Hex()
	item := bson.NewObjectID().Hex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(context.Background(), user, item, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines := db.CartLines()
	require.Len(t, lines, 1)
	assert.Equal(t, 20, lines[0].Qty)
}

func TestAddValidation(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	valid := bson.NewObjectID().Hex()

	tests := []struct {
		name   string
		userID string
		itemID string
		qty    int
		field  string
	}{
		{"missing user", "", valid, 1, "userId"},
		{"malformed user", "not-an-id", valid, 1, "userId"},
		{"malformed item", valid, "1234", 1, "itemId"},
		{"zero qty", valid, valid, 0, "qty"},
		{"negative qty", valid, valid, -2, "qty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.userID, tt.itemID, tt.qty)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.field, apperr.From(err).Field)
		})
	}
	assert.Empty(t, db.CartLines())
}

func TestAddRejectsQuantityOverflow(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	user := bson.NewObjectID().Hex()
	item := bson.NewObjectID().Hex()

	_, err := svc.Add(ctx, user, item, math.MaxInt64)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "qty", apperr.From(err).Field)
	assert.Empty(t, db.CartLines())

	_, err = svc.Add(ctx, user, item, store.MaxQuantity)
	require.NoError(t, err)

	_, err = svc.Add(ctx, user, item, 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	lines := db.CartLines()
	require.Len(t, lines, 1)
	assert.Equal(t, store.MaxQuantity, lines[0].Qty)
}

func TestAddStoreFailure(t *testing.T) {
	svc, db := newTestService()
	db.InjectFault(memstore.OpAddQuantity, 0, errors.New("connection reset"))

	_, err := svc.Add(context.Background(), bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 1)
	assert.True(t, apperr.Is(err, apperr.KindStore))
}

func TestListJoinsCatalogAndSkipsMissingItems(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	user := bson.NewObjectID().Hex()
	naan := db.PutItem(models.Item{Name: "Garlic Naan", Price: 3.25, Photo: "naan.png"})
	gone := db.PutItem(models.Item{Name: "Seasonal Soup", Price: 6})

	_, err := svc.Add(ctx, user, naan.ID.Hex(), 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, gone.ID.Hex(), 1)
	require.NoError(t, err)
	db.DeleteItem(gone.ID)

	views, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Garlic Naan", views[0].Name)
	assert.Equal(t, 3.25, views[0].Price)
	assert.Equal(t, "naan.png", views[0].Photo)
	assert.Equal(t, 2, views[0].Qty)
}

func TestListEmptyCartIsNotAnError(t *testing.T) {
	svc, _ := newTestService()

	views, err := svc.List(context.Background(), bson.NewObjectID().Hex())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestListExcludesOrderedLines(t *testing.T) {
	svc, db := newTestService()
	ctx := context.Background()
	user := bson.NewObjectID().Hex()
	item := db.PutItem(models.Item{Name: "Samosa", Price: 2})

	added, err := svc.Add(ctx, user, item.ID.Hex(), 1)
	require.NoError(t, err)
	require.NoError(t, db.MarkOrdered(ctx, added.Line.ID))

	views, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("single unit deletes the line", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 1)
		require.NoError(t, err)

		res, err := svc.Remove(ctx, added.Line.ID.Hex(), false)
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.Empty(t, db.CartLines())
	})

	t.Run("several units decrement by one", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 3)
		require.NoError(t, err)

		res, err := svc.Remove(ctx, added.Line.ID.Hex(), false)
		require.NoError(t, err)
		assert.False(t, res.Removed)
		require.NotNil(t, res.Line)
		assert.Equal(t, 2, res.Line.Qty)

		lines := db.CartLines()
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Qty)
	})

	t.Run("removeAll deletes regardless of qty", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 4)
		require.NoError(t, err)

		res, err := svc.Remove(ctx, added.Line.ID.Hex(), true)
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.Empty(t, db.CartLines())
	})

	t.Run("unknown line", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Remove(ctx, bson.NewObjectID().Hex(), false)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("ordered line counts as absent", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 2)
		require.NoError(t, err)
		require.NoError(t, db.MarkOrdered(ctx, added.Line.ID))

		_, err = svc.Remove(ctx, added.Line.ID.Hex(), true)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Len(t, db.CartLines(), 1)
	})

	t.Run("concurrent decrement to one deletes instead", func(t *testing.T) {
		db := memstore.New()
		carts := &racingCarts{Store: db}
		svc := NewService(carts, db, zap.NewNop())
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 2)
		require.NoError(t, err)
		carts.raceOnce = true

		res, err := svc.Remove(ctx, added.Line.ID.Hex(), false)
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.Empty(t, db.CartLines())
	})

	t.Run("missing id", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Remove(ctx, "", false)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Equal(t, "Cart ID is required", apperr.From(err).Message)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("adds the increment", func(t *testing.T) {
		svc, _ := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 2)
		require.NoError(t, err)

		line, err := svc.Update(ctx, added.Line.ID.Hex(), 3)
		require.NoError(t, err)
		assert.Equal(t, 5, line.Qty)
	})

	t.Run("rejects non-positive increments before touching storage", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 2)
		require.NoError(t, err)
		// any store access would now fail with a store error
		db.InjectFault(memstore.OpFindCartLine, 0, errors.New("store touched"))
		db.InjectFault(memstore.OpIncrementQuantity, 0, errors.New("store touched"))

		for _, inc := range []int{0, -1} {
			_, err := svc.Update(ctx, added.Line.ID.Hex(), inc)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "increment %d", inc)
		}
		lines := db.CartLines()
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Qty)
	})

	t.Run("unknown line", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Update(ctx, bson.NewObjectID().Hex(), 1)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("rejects an increment past the quantity cap", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), store.MaxQuantity-1)
		require.NoError(t, err)

		_, err = svc.Update(ctx, added.Line.ID.Hex(), 2)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Equal(t, "increment", apperr.From(err).Field)

		line, err := svc.Update(ctx, added.Line.ID.Hex(), 1)
		require.NoError(t, err)
		assert.Equal(t, store.MaxQuantity, line.Qty)
		assert.Equal(t, store.MaxQuantity, db.CartLines()[0].Qty)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, db := newTestService()
		added, err := svc.Add(ctx, bson.NewObjectID().Hex(), bson.NewObjectID().Hex(), 1)
		require.NoError(t, err)
		db.InjectFault(memstore.OpIncrementQuantity, 0, errors.New("timeout"))

		_, err = svc.Update(ctx, added.Line.ID.Hex(), 1)
		assert.True(t, apperr.Is(err, apperr.KindStore))
	})
}

// racingCarts lets another remove land between the read and the decrement.
type racingCarts struct {
	*memstore.Store
	raceOnce bool
}

func (r *racingCarts) FindUnorderedByID(ctx context.Context, id bson.ObjectID) (*models.CartLine, error) {
	line, err := r.Store.FindUnorderedByID(ctx, id)
	if err == nil && r.raceOnce {
		r.raceOnce = false
		if _, err := r.Store.IncrementQuantity(ctx, id, -1); err != nil {
			return nil, err
		}
	}
	return line, err
}
