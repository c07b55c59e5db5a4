package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	paymentserrors "smartparking/internal/payments/errors"
	"smartparking/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPaymentRepository keeps payments in process memory with the same
// matching rules as the Mongo repository.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]model.Payment
	writes   int
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments: make(map[string]model.Payment),
	}
}

func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payment.ID = primitive.NewObjectID().Hex()
	r.payments[payment.ID] = clonePayment(*payment)
	r.writes++
	return nil
}

func (r *MemoryPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrNotFound, id)
	}
	out := clonePayment(payment)
	return &out, nil
}

func (r *MemoryPaymentRepository) Confirm(ctx context.Context, id string, userID string, slotNumber int, paidAt time.Time) (*model.Payment, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	allowed := model.StatusesAllowedBefore(model.PaymentStatusConfirmed)
	if !ok || payment.UserID != userID || payment.SlotNumber != slotNumber || !slices.Contains(allowed, payment.PaymentStatus) {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrNotFound, id)
	}

	payment.PaymentStatus = model.PaymentStatusConfirmed
	payment.PaidAt = &paidAt
	r.payments[id] = payment
	r.writes++

	out := clonePayment(payment)
	return &out, nil
}

// Writes counts successful inserts and updates.
func (r *MemoryPaymentRepository) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writes
}

func clonePayment(p model.Payment) model.Payment {
	if p.PaidAt != nil {
		paidAt := *p.PaidAt
		p.PaidAt = &paidAt
	}
	return p
}
