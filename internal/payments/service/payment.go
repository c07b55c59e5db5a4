package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "smartparking/internal/payments/errors"
	"smartparking/internal/payments/repository"
	"smartparking/internal/payments/validator"
	"smartparking/pkg/background"
	apperrors "smartparking/pkg/errors"
	"smartparking/pkg/events"
	"smartparking/pkg/logger"
	"smartparking/pkg/model"
	"smartparking/pkg/notifier"
	"smartparking/pkg/qrcode"
	"smartparking/pkg/sanitizer"
)

const (
	MsgInitiateMissingFields = "All payment details are required"
	MsgInitiateFailed        = "Error processing payment"
	MsgCodeMissingFields     = "Missing required details"
	MsgInvalidMethod         = "Invalid payment method"
	MsgCodeFailed            = "Error generating QR code"
	MsgConfirmMissingFields  = "User ID, Slot Number and Payment ID are required"
	MsgConfirmFailed         = "Error confirming payment"

	NotificationSubject = "Payment Confirmation"
)

type PaymentService interface {
	Initiate(ctx context.Context, in *model.PaymentInitiation) (*model.Payment, error)
	GenerateCode(ctx context.Context, in *model.PaymentCodeRequest) (string, error)
	Confirm(ctx context.Context, in *model.PaymentConfirmation) (*model.Payment, error)
	GetByID(ctx context.Context, id string) (*model.Payment, error)
}

type paymentService struct {
	repo      repository.PaymentRepository
	validator *validator.PaymentValidator
	generator qrcode.Generator
	notifier  notifier.Notifier
	publisher events.Publisher
	runner    *background.Runner
	payeeName string
	log       *logger.Logger
	now       func() time.Time
}

func NewPaymentService(
	repo repository.PaymentRepository,
	validator *validator.PaymentValidator,
	generator qrcode.Generator,
	notifier notifier.Notifier,
	publisher events.Publisher,
	runner *background.Runner,
	payeeName string,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		repo:      repo,
		validator: validator,
		generator: generator,
		notifier:  notifier,
		publisher: publisher,
		runner:    runner,
		payeeName: payeeName,
		log:       log,
		now:       time.Now,
	}
}

// Initiate records a payment attempt as InProcess and emails the payer in the
// background. The response never waits for the email.
func (s *paymentService) Initiate(ctx context.Context, in *model.PaymentInitiation) (*model.Payment, error) {
	s.sanitizeInitiation(in)

	if err := s.validator.ValidateInitiation(in); err != nil {
		s.log.Warn("Payment validation failed",
			"user_id", in.UserID,
			"slot_number", in.SlotNumber,
			"error", err,
		)
		return nil, invalidInput(MsgInitiateMissingFields, err)
	}

	payment := &model.Payment{
		UserID:        in.UserID,
		SlotNumber:    in.SlotNumber,
		PaymentMethod: in.PaymentMethod,
		PaymentNumber: in.PaymentNumber,
		Amount:        in.Amount,
		PaymentStatus: model.PaymentStatusInProcess,
		GeneratedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.validator.ValidatePayment(payment); err != nil {
		return nil, invalidInput(MsgInitiateMissingFields, err)
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		s.log.Error("Failed to create payment",
			"user_id", payment.UserID,
			"slot_number", payment.SlotNumber,
			"error", err,
		)
		return nil, apperrors.Persistence(MsgInitiateFailed, err)
	}

	s.log.Info("Payment recorded",
		"id", payment.ID,
		"user_id", payment.UserID,
		"slot_number", payment.SlotNumber,
		"payment_method", payment.PaymentMethod,
	)

	notification := notifier.Notification{
		To:      in.Email,
		Subject: NotificationSubject,
		Text:    fmt.Sprintf("Your payment for parking slot %d has been confirmed. Amount: %v.", payment.SlotNumber, payment.Amount),
	}
	s.runner.Go(ctx, "notify-payment", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, notification)
	})
	s.publish(ctx, events.TypePaymentInitiated, *payment)

	return payment, nil
}

// GenerateCode renders the payment intent for in as a PNG data URL. Nothing
// is persisted.
func (s *paymentService) GenerateCode(ctx context.Context, in *model.PaymentCodeRequest) (string, error) {
	in.UserID = sanitizer.NormalizeIdentifier(in.UserID)
	in.PaymentMethod = sanitizer.NormalizePaymentMethod(in.PaymentMethod)

	if err := s.validator.ValidateCodeRequest(in); err != nil {
		return "", invalidInput(MsgCodeMissingFields, err)
	}

	intent, err := BuildIntent(s.payeeName, in.PaymentMethod, in.UserID, in.SlotNumber, in.Amount)
	if err != nil {
		s.log.Warn("Unsupported payment method",
			"payment_method", in.PaymentMethod,
			"user_id", in.UserID,
		)
		return "", apperrors.UnsupportedMethod(MsgInvalidMethod, err)
	}

	dataURL, err := s.generator.DataURL(ctx, intent)
	if err != nil {
		s.log.Error("Failed to generate payment code",
			"payment_method", in.PaymentMethod,
			"user_id", in.UserID,
			"error", err,
		)
		return "", apperrors.Internal(MsgCodeFailed, err)
	}

	return dataURL, nil
}

// Confirm moves the matching payment to Confirmed in one atomic update.
// Confirming an already confirmed payment refreshes paidAt.
func (s *paymentService) Confirm(ctx context.Context, in *model.PaymentConfirmation) (*model.Payment, error) {
	in.UserID = sanitizer.NormalizeIdentifier(in.UserID)
	in.PaymentID = sanitizer.NormalizeIdentifier(in.PaymentID)

	if err := s.validator.ValidateConfirmation(in); err != nil {
		return nil, invalidInput(MsgConfirmMissingFields, err)
	}

	paidAt := s.now().UTC().Truncate(time.Millisecond)
	payment, err := s.repo.Confirm(ctx, in.PaymentID, in.UserID, in.SlotNumber, paidAt)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) || errors.Is(err, paymentserrors.ErrInvalidID) {
			s.log.Warn("Payment to confirm not found",
				"payment_id", in.PaymentID,
				"user_id", in.UserID,
				"slot_number", in.SlotNumber,
			)
			return nil, apperrors.NotFound("Payment")
		}
		s.log.Error("Failed to confirm payment",
			"payment_id", in.PaymentID,
			"error", err,
		)
		return nil, apperrors.Persistence(MsgConfirmFailed, err)
	}

	s.log.Info("Payment confirmed",
		"id", payment.ID,
		"user_id", payment.UserID,
		"slot_number", payment.SlotNumber,
	)
	s.publish(ctx, events.TypePaymentConfirmed, *payment)

	return payment, nil
}

func (s *paymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Payment ID cannot be empty")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) || errors.Is(err, paymentserrors.ErrInvalidID) {
			return nil, apperrors.NotFound("Payment")
		}
		s.log.Error("Failed to get payment by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Persistence("Error retrieving payment", err)
	}

	return payment, nil
}

func (s *paymentService) publish(ctx context.Context, eventType string, payment model.Payment) {
	occurredAt := payment.GeneratedAt
	if payment.PaidAt != nil {
		occurredAt = *payment.PaidAt
	}

	s.runner.Go(ctx, "publish-"+eventType, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.Event{
			Type:       eventType,
			Key:        payment.ID,
			Payload:    payment,
			OccurredAt: occurredAt,
		})
	})
}

func (s *paymentService) sanitizeInitiation(in *model.PaymentInitiation) {
	in.UserID = sanitizer.NormalizeIdentifier(in.UserID)
	in.PaymentMethod = sanitizer.NormalizePaymentMethod(in.PaymentMethod)
	in.PaymentNumber = sanitizer.NormalizePaymentNumber(in.PaymentNumber)
	in.Email = sanitizer.NormalizeEmail(in.Email)
}

func invalidInput(message string, err error) *apperrors.AppError {
	appErr := apperrors.InvalidInput(message)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr = appErr.WithDetails(map[string]any{"fields": verrs.Fields()})
	}
	return appErr
}
