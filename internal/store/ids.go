package store

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"julianmorley.ca/con-plar/eatathome/pkg/apperr"
)

// ParseID validates a hex ObjectID supplied by a caller. field names the input
// in the returned validation error.
func ParseID(field, hex string) (bson.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return bson.NilObjectID, apperr.Validation(field, field+" is required")
	}
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.NilObjectID, apperr.Validation(field, field+" must be a valid ObjectID")
	}
	return id, nil
}

// UniqueIDs drops duplicates while keeping first-seen order.
func UniqueIDs(ids []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
