package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the slice of an account the order history join needs. Credentials
// live with the authentication service and are never decoded here.
type User struct {
	ID    bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name  string        `json:"name" bson:"name"`
	Email string        `json:"email" bson:"email"`
}

// DisplayName prefers the account name and falls back to the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
