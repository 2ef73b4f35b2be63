package domain

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh document identifier in ObjectID hex form. Every
// backend uses the same shape so ids stay valid when switching drivers.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed 24 character hex ObjectID.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// CheckID returns ErrInvalidID wrapped with the offending value when id is
// malformed.
func CheckID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
