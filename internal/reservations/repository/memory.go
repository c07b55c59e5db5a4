package repository

import (
	"context"
	"fmt"
	"sync"

	reservationserrors "smartparking/internal/reservations/errors"
	"smartparking/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryReservationRepository keeps reservations in process memory. It backs
// tests and local runs without a database.
type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]model.Reservation
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]model.Reservation),
	}
}

func (r *MemoryReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reservation.ID = primitive.NewObjectID().Hex()
	r.reservations[reservation.ID] = *reservation
	return nil
}

func (r *MemoryReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, ok := r.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrNotFound, id)
	}
	return &reservation, nil
}

func (r *MemoryReservationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reservations)
}
