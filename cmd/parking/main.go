package main

import (
	"context"

	paymentHandler "smartparking/internal/payments/handler"
	paymentRepository "smartparking/internal/payments/repository"
	paymentService "smartparking/internal/payments/service"
	paymentValidator "smartparking/internal/payments/validator"
	reservationHandler "smartparking/internal/reservations/handler"
	reservationRepository "smartparking/internal/reservations/repository"
	reservationService "smartparking/internal/reservations/service"
	reservationValidator "smartparking/internal/reservations/validator"
	"smartparking/pkg/app"
	"smartparking/pkg/background"
	"smartparking/pkg/config"
	"smartparking/pkg/events"
	"smartparking/pkg/kafka"
	"smartparking/pkg/logger"
	"smartparking/pkg/notifier"
	"smartparking/pkg/qrcode"
)

const ServiceName = "parking"

func main() {
	cfg, err := config.Load(ServiceName)
	if err != nil {
		logger.New(logger.Config{Service: ServiceName}).Fatal("Invalid configuration", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Smart Parking service")

	runner := background.NewRunner(cfg.BackgroundTimeout, cfg.Log)
	serverApp := app.NewApplication(cfg, runner)
	if cfg.Kafka != nil {
		serverApp.AddReadinessCheck("kafka", kafka.BrokerCheck(cfg.Kafka.Brokers))
	}
	if rdb := cfg.Client.Redis; rdb != nil {
		serverApp.AddReadinessCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	reservationEvents := newPublisher(cfg, serverApp, cfg.KafkaReservationsTopic)
	paymentEvents := newPublisher(cfg, serverApp, cfg.KafkaPaymentsTopic)

	reservations := initReservationService(cfg, reservationEvents, runner)
	payments := initPaymentService(cfg, paymentEvents, runner)

	serverApp.SetApp(
		cfg.Client.Mongo,
		reservationHandler.NewReservationHandler(reservations, cfg.Log),
		paymentHandler.NewPaymentHandler(payments, cfg.Log),
	)
	serverApp.Run()
}

func newPublisher(cfg *config.Config, serverApp *app.Application, topic string) events.Publisher {
	publisher, err := events.NewPublisher(cfg.Kafka, topic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "topic", topic, "error", err)
	}
	serverApp.RegisterCloser("publisher:"+topic, publisher)
	return publisher
}

func initReservationService(cfg *config.Config, publisher events.Publisher, runner *background.Runner) reservationService.ReservationService {
	svc := reservationService.NewReservationService(
		reservationRepository.NewMongoReservationRepository(cfg),
		reservationValidator.NewReservationValidator(cfg.Log),
		publisher,
		runner,
		cfg.Log,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return svc
}

func initPaymentService(cfg *config.Config, publisher events.Publisher, runner *background.Runner) paymentService.PaymentService {
	generator, err := qrcode.NewPNGGenerator(cfg.QRCodeSize, cfg.QRCodeRecoveryLevel)
	if err != nil {
		cfg.Log.Fatal("Failed to configure QR code generator", "error", err)
	}

	svc := paymentService.NewPaymentService(
		paymentRepository.NewMongoPaymentRepository(cfg),
		paymentValidator.NewPaymentValidator(cfg.Log),
		generator,
		notifier.New(cfg.SMTP, cfg.Log),
		publisher,
		runner,
		cfg.PayeeName,
		cfg.Log,
	)

	cfg.Log.Info("Payment service initialized", "database", cfg.MongoDatabaseName, "smtp_enabled", cfg.SMTP.Enabled())
	return svc
}
