package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusInProcess PaymentStatus = "InProcess"
	PaymentStatusConfirmed PaymentStatus = "Confirmed"
)

const (
	PaymentMethodPaytm     = "Paytm"
	PaymentMethodGooglePay = "Google Pay"
)

var paymentStatusRank = map[PaymentStatus]int{
	PaymentStatusPending:   0,
	PaymentStatusInProcess: 1,
	PaymentStatusConfirmed: 2,
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusRank[s]
	return ok
}

// CanTransitionTo reports whether a payment in status s may be moved to next.
// Status only moves forward; re-applying the same status is allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	from, ok := paymentStatusRank[s]
	if !ok {
		return false
	}
	to, ok := paymentStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// StatusesAllowedBefore lists every status that may transition to next.
func StatusesAllowedBefore(next PaymentStatus) []PaymentStatus {
	statuses := make([]PaymentStatus, 0, len(paymentStatusRank))
	for _, s := range []PaymentStatus{PaymentStatusPending, PaymentStatusInProcess, PaymentStatusConfirmed} {
		if s.CanTransitionTo(next) {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

type Payment struct {
	ID            string        `json:"_id,omitempty" bson:"_id,omitempty"`
	UserID        string        `json:"userId" bson:"userId" validate:"required,max=128"`
	SlotNumber    int           `json:"slotNumber" bson:"slotNumber" validate:"required,gt=0"`
	PaymentMethod string        `json:"paymentMethod" bson:"paymentMethod" validate:"required,max=64"`
	PaymentNumber string        `json:"paymentNumber" bson:"paymentNumber" validate:"required,max=128"`
	Amount        float64       `json:"amount" bson:"amount" validate:"required,gt=0"`
	PaymentStatus PaymentStatus `json:"paymentStatus" bson:"paymentStatus" validate:"required,payment_status"`
	GeneratedAt   time.Time     `json:"generatedAt" bson:"generatedAt"`
	PaidAt        *time.Time    `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// PaymentInitiation carries everything needed to record a payment attempt.
// Email is used for the notification only and is not persisted.
type PaymentInitiation struct {
	UserID        string  `json:"userId" validate:"required,max=128"`
	SlotNumber    int     `json:"slotNumber" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,max=64"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentNumber string  `json:"paymentNumber" validate:"required,max=128"`
	Email         string  `json:"email" validate:"required,email"`
}

type PaymentCodeRequest struct {
	UserID        string  `json:"userId" validate:"required,max=128"`
	SlotNumber    int     `json:"slotNumber" validate:"required,gt=0"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"required,max=64"`
}

type PaymentConfirmation struct {
	UserID     string `json:"userId" validate:"required,max=128"`
	SlotNumber int    `json:"slotNumber" validate:"required,gt=0"`
	PaymentID  string `json:"paymentId" validate:"required"`
}
