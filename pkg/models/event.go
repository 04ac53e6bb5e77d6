package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const EventOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ItemID bson.ObjectID `json:"itemId"`
	Qty    int           `json:"qty"`
	Price  float64       `json:"price"`
}

// OrderPlacedEvent is published once a checkout consumed every cart line.
type OrderPlacedEvent struct {
	Event     string            `json:"event"`
	OrderID   bson.ObjectID     `json:"orderId"`
	UserID    bson.ObjectID     `json:"userId"`
	Items     []OrderPlacedItem `json:"items"`
	Total     float64           `json:"total"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewOrderPlacedEvent(order Order, details []OrderDetail) OrderPlacedEvent {
	evt := OrderPlacedEvent{
		Event:     EventOrderPlaced,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     make([]OrderPlacedItem, 0, len(details)),
		Timestamp: time.Now().UTC(),
	}
	for _, d := range details {
		evt.Items = append(evt.Items, OrderPlacedItem{ItemID: d.ItemID, Qty: d.Qty, Price: d.Price})
		evt.Total += d.Subtotal()
	}
	return evt
}
