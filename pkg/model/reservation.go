package model

import "time"

// Reservation is immutable once stored.
type Reservation struct {
	ID         string    `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID     string    `json:"userId" bson:"userId" validate:"required,max=128"`
	SlotNumber int       `json:"slotNumber" bson:"slotNumber" validate:"required,gt=0"`
	ReservedAt time.Time `json:"reservedAt" bson:"reservedAt"`
}
