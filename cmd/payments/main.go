package main

import (
	"vitrii/internal/notify"
	"vitrii/internal/payments/handler"
	"vitrii/internal/payments/repository"
	"vitrii/internal/payments/service"
	"vitrii/pkg/app"
	"vitrii/pkg/config"
	"vitrii/pkg/kafka"
	kafka_config "vitrii/pkg/kafka/config"

	"github.com/joho/godotenv"
)

const ServiceName = "payments"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Payments service")

	serverApp := app.NewApplication(cfg)
	notifier := initNotifier(cfg, serverApp)
	paymentService := initServices(cfg, notifier)

	serverApp.SetApp(handler.NewPaymentHandler(paymentService, cfg.Log))
	serverApp.Run()
}

func initNotifier(cfg *config.Config, serverApp *app.Application) notify.Notifier {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.NotificationsTopic, kafkaCfg.DLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, notifications disabled", "error", err)
		return notify.NewNopNotifier()
	}

	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	return notify.NewKafkaNotifier(producer, ServiceName, cfg.Log)
}

func initServices(cfg *config.Config, notifier notify.Notifier) service.PaymentService {
	paymentRepo := repository.NewMongoPaymentRepository(cfg)
	paymentService := service.NewPaymentService(paymentRepo, notifier, cfg)

	cfg.Log.Info("Payment service initialized", "database", cfg.MongoDatabaseName)
	return paymentService
}
