package service

import (
	"context"
	"errors"
	"time"

	reservationserrors "smartparking/internal/reservations/errors"
	"smartparking/internal/reservations/repository"
	"smartparking/internal/reservations/validator"
	"smartparking/pkg/background"
	apperrors "smartparking/pkg/errors"
	"smartparking/pkg/events"
	"smartparking/pkg/logger"
	"smartparking/pkg/model"
	"smartparking/pkg/sanitizer"
)

const (
	msgMissingFields = "User ID and Slot Number are required"
	msgReserveFailed = "Error reserving slot"
)

type ReservationService interface {
	Reserve(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	validator *validator.ReservationValidator
	publisher events.Publisher
	runner    *background.Runner
	log       *logger.Logger
	now       func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	validator *validator.ReservationValidator,
	publisher events.Publisher,
	runner *background.Runner,
	log *logger.Logger,
) ReservationService {
	return &reservationService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		runner:    runner,
		log:       log,
		now:       time.Now,
	}
}

// Reserve records a reservation for slotNumber. Identical calls are not
// deduplicated and each creates its own record.
func (s *reservationService) Reserve(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error) {
	reservation := &model.Reservation{
		UserID:     sanitizer.NormalizeIdentifier(userID),
		SlotNumber: slotNumber,
	}

	if err := s.validator.Validate(reservation); err != nil {
		s.log.Warn("Reservation validation failed",
			"user_id", reservation.UserID,
			"slot_number", reservation.SlotNumber,
			"error", err,
		)
		return nil, invalidInput(msgMissingFields, err)
	}

	reservation.ReservedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.repo.Create(ctx, reservation); err != nil {
		s.log.Error("Failed to create reservation",
			"user_id", reservation.UserID,
			"slot_number", reservation.SlotNumber,
			"error", err,
		)
		return nil, apperrors.Persistence(msgReserveFailed, err)
	}

	s.log.Info("Slot reserved successfully",
		"id", reservation.ID,
		"user_id", reservation.UserID,
		"slot_number", reservation.SlotNumber,
	)

	created := *reservation
	s.runner.Go(ctx, "publish-"+events.TypeReservationCreated, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.Event{
			Type:       events.TypeReservationCreated,
			Key:        created.UserID,
			Payload:    created,
			OccurredAt: created.ReservedAt,
		})
	})

	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) || errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		s.log.Error("Failed to get reservation by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Persistence("Error retrieving reservation", err)
	}

	return reservation, nil
}

func invalidInput(message string, err error) *apperrors.AppError {
	appErr := apperrors.InvalidInput(message)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr = appErr.WithDetails(map[string]any{"fields": verrs.Fields()})
	}
	return appErr
}
