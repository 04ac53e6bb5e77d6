package main

import (
	"go.uber.org/zap"

	"julianmorley.ca/con-plar/eatathome/internal/cart"
	"julianmorley.ca/con-plar/eatathome/internal/order"
	"julianmorley.ca/con-plar/eatathome/internal/query"
	"julianmorley.ca/con-plar/eatathome/internal/router"
	"julianmorley.ca/con-plar/eatathome/internal/store"
	"julianmorley.ca/con-plar/eatathome/pkg/ai"
)

// newServices builds the router dependencies. cartView may be a cache in
// front of db; checkout always snapshots items from db itself.
func newServices(db backend, cartView store.Catalog, summaries *ai.Client, log *zap.Logger, orderOpts ...order.Option) router.Deps {
	return router.Deps{
		Cart:      cart.NewService(db, cartView, log),
		Orders:    order.NewService(db, db, db, log, orderOpts...),
		History:   query.NewService(db, db, log),
		Summaries: summaries,
		Health:    db,
	}
}
