package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// OrderStatusPending is the status every order detail starts with; later
// transitions belong to fulfillment.
const OrderStatusPending = "Pending"

// Order is the header written once per checkout.
type Order struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    bson.ObjectID `json:"userId" bson:"userId"`
	OrderDate time.Time     `json:"orderDate" bson:"orderDate"`
}

// OrderDetail is one line of a placed order. Quantity, name, price and
// category are copied from the cart line and catalog at checkout time.
type OrderDetail struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	OrderID   bson.ObjectID `json:"orderId" bson:"orderId"`
	ItemID    bson.ObjectID `json:"itemId" bson:"itemId"`
	UserID    bson.ObjectID `json:"userId" bson:"userId"`
	Qty       int           `json:"qty" bson:"qty"`
	Status    string        `json:"status" bson:"status"`
	Name      string        `json:"name" bson:"name"`
	Price     float64       `json:"price" bson:"price"`
	Category  string        `json:"category" bson:"category"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
}

// OrderHistoryEntry is the display shape of one order detail.
type OrderHistoryEntry struct {
	ID        bson.ObjectID `json:"id"`
	OrderID   bson.ObjectID `json:"orderId"`
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	Price     float64       `json:"price"`
	Status    string        `json:"status"`
	Category  string        `json:"category"`
	CreatedAt time.Time     `json:"createdAt"`
	Customer  string        `json:"customer,omitempty"`
}

type PlaceOrderRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// NewOrder stamps the order date with millisecond precision, the resolution
// BSON dates are stored with.
func NewOrder(userID bson.ObjectID) *Order {
	return &Order{
		UserID:    userID,
		OrderDate: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// NewOrderDetail snapshots a cart line and its catalog item into a pending detail.
func NewOrderDetail(orderID bson.ObjectID, line CartLine, item Item) *OrderDetail {
	return &OrderDetail{
		OrderID:   orderID,
		ItemID:    line.ItemID,
		UserID:    line.UserID,
		Qty:       line.Qty,
		Status:    OrderStatusPending,
		Name:      item.Name,
		Price:     item.Price,
		Category:  item.Category,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// Subtotal returns price times quantity at snapshot time.
func (d *OrderDetail) Subtotal() float64 {
	return d.Price * float64(d.Qty)
}

// HistoryEntry joins the detail with its order header.
func (d *OrderDetail) HistoryEntry(order Order) OrderHistoryEntry {
	return OrderHistoryEntry{
		ID:        d.ID,
		OrderID:   d.OrderID,
		Name:      d.Name,
		Quantity:  d.Qty,
		Price:     d.Price,
		Status:    d.Status,
		Category:  d.Category,
		CreatedAt: order.OrderDate,
	}
}
