package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Item is a catalog entry. The catalog is read-only from the cart and order side.
type Item struct {
	ID       bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name     string        `json:"name" bson:"name"`
	Price    float64       `json:"price" bson:"price"`
	Photo    string        `json:"photo" bson:"photo"`
	Category string        `json:"category" bson:"category"`
}
