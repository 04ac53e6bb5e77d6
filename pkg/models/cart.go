package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartLine is one item quantity in a user's pending cart. At most one line with
// Ordered=false exists per (UserID, ItemID); once Ordered is set the line is frozen.
type CartLine struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    bson.ObjectID `json:"userId" bson:"userId"`
	ItemID    bson.ObjectID `json:"itemId" bson:"itemId"`
	Qty       int           `json:"qty" bson:"qty"`
	Ordered   bool          `json:"ordered" bson:"ordered"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// CartLineView is a cart line joined with the catalog entry it points at.
type CartLineView struct {
	ID     bson.ObjectID `json:"_id"`
	UserID bson.ObjectID `json:"userId"`
	ItemID bson.ObjectID `json:"itemId"`
	Name   string        `json:"name"`
	Qty    int           `json:"qty"`
	Price  float64       `json:"price"`
	Photo  string        `json:"photo"`
}

type AddToCartRequest struct {
	UserID string `json:"userId" binding:"required"`
	ItemID string `json:"itemId" binding:"required"`
	Qty    int    `json:"qty"`
}

// UpdateCartRequest keeps Increment as a float so fractional input can be rejected explicitly.
type UpdateCartRequest struct {
	Increment *float64 `json:"increment"`
}

func (l *CartLine) SetTimestamps() {
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

// View joins the line with its catalog item.
func (l *CartLine) View(item Item) CartLineView {
	return CartLineView{
		ID:     l.ID,
		UserID: l.UserID,
		ItemID: l.ItemID,
		Name:   item.Name,
		Qty:    l.Qty,
		Price:  item.Price,
		Photo:  item.Photo,
	}
}
