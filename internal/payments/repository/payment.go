package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "smartparking/internal/payments/errors"
	"smartparking/pkg/config"
	"smartparking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Payments"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)

	// Confirm marks the payment matching id, userID and slotNumber as
	// Confirmed and stamps paidAt, returning the updated record.
	Confirm(ctx context.Context, id string, userID string, slotNumber int, paidAt time.Time) (*model.Payment, error)
}

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	payment.ID = ""
	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}

	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}

	var payment model.Payment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", paymentserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return &payment, nil
}

func (r *mongoPaymentRepository) Confirm(ctx context.Context, id string, userID string, slotNumber int, paidAt time.Time) (*model.Payment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.MongoOpTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", paymentserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":        objectID,
		"userId":     userID,
		"slotNumber": slotNumber,
		"paymentStatus": bson.M{
			"$in": model.StatusesAllowedBefore(model.PaymentStatusConfirmed),
		},
	}
	update := bson.M{
		"$set": bson.M{
			"paymentStatus": model.PaymentStatusConfirmed,
			"paidAt":        paidAt,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var payment model.Payment
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", paymentserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	return &payment, nil
}
