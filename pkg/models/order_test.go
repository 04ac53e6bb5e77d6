package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestNewOrderDetailSnapshotsLineAndItem(t *testing.T) {
	line := CartLine{ID: bson.NewObjectID(), UserID: bson.NewObjectID(), ItemID: bson.NewObjectID(), Qty: 3}
	item := Item{ID: line.ItemID, Name: "Thali", Price: 15.5, Category: "Combos"}
	orderID := bson.NewObjectID()

	d := NewOrderDetail(orderID, line, item)
	assert.Equal(t, orderID, d.OrderID)
	assert.Equal(t, line.UserID, d.UserID)
	assert.Equal(t, 3, d.Qty)
	assert.Equal(t, OrderStatusPending, d.Status)
	assert.Equal(t, "Thali", d.Name)
	assert.InDelta(t, 46.5, d.Subtotal(), 0.0001)
	assert.Equal(t, d.CreatedAt, d.CreatedAt.Truncate(time.Millisecond))
}

func TestHistoryEntryUsesOrderDate(t *testing.T) {
	order := NewOrder(bson.NewObjectID())
	order.ID = bson.NewObjectID()
	d := OrderDetail{ID: bson.NewObjectID(), OrderID: order.ID, Qty: 1, Price: 4, Name: "Lassi", Status: OrderStatusPending}

	e := d.HistoryEntry(*order)
	assert.Equal(t, order.OrderDate, e.CreatedAt)
	assert.Equal(t, d.ID, e.ID)
	assert.Equal(t, 1, e.Quantity)
	assert.Empty(t, e.Customer)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Anil", (&User{Name: "Anil", Email: "a@example.com"}).DisplayName())
	assert.Equal(t, "a@example.com", (&User{Email: "a@example.com"}).DisplayName())
}
