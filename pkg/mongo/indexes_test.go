package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"julianmorley.ca/con-plar/eatathome/internal/store"
)

func TestRequiredIndexesCoverCollections(t *testing.T) {
	covered := make(map[string]bool)
	for _, idx := range requiredIndexes {
		keys, ok := idx.IndexModel.Keys.(bson.D)
		require.True(t, ok, idx.CollectionName)
		assert.NotEmpty(t, keys, idx.CollectionName)
		assert.NotNil(t, idx.IndexModel.Options, idx.CollectionName)
		covered[idx.CollectionName] = true
	}

	for _, name := range []string{CollectionCarts, CollectionOrders, CollectionOrderDetails} {
		assert.True(t, covered[name], name)
	}
}

func TestNotFoundMapping(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments), store.ErrNotFound)

	other := errors.New("server selection timeout")
	assert.Equal(t, other, notFound(other))
}
