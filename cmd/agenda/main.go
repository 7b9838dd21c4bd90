package main

import (
	eventshandler "vitrii/internal/events/handler"
	eventsrepo "vitrii/internal/events/repository"
	eventsservice "vitrii/internal/events/service"
	eventsvalidator "vitrii/internal/events/validator"
	"vitrii/internal/notify"
	reservationshandler "vitrii/internal/reservations/handler"
	reservationsrepo "vitrii/internal/reservations/repository"
	reservationsservice "vitrii/internal/reservations/service"
	reservationsvalidator "vitrii/internal/reservations/validator"
	waitlisthandler "vitrii/internal/waitlist/handler"
	waitlistrepo "vitrii/internal/waitlist/repository"
	waitlistservice "vitrii/internal/waitlist/service"
	waitlistvalidator "vitrii/internal/waitlist/validator"
	"vitrii/pkg/app"
	"vitrii/pkg/config"
	"vitrii/pkg/kafka"
	kafka_config "vitrii/pkg/kafka/config"

	"github.com/joho/godotenv"
)

const ServiceName = "agenda"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	cfg.SetMongo()

	cfg.Log.Info("Starting Agenda service")

	serverApp := app.NewApplication(cfg)
	notifier := initNotifier(cfg, serverApp)
	eventService, reservationService, waitlistService := initServices(cfg, notifier)

	serverApp.SetApp(
		eventshandler.NewEventHandler(eventService, cfg.Log),
		reservationshandler.NewReservationHandler(reservationService, cfg.Log),
		waitlisthandler.NewWaitlistHandler(waitlistService, cfg.Log),
	)
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

func initServices(cfg *config.Config, notifier notify.Notifier) (eventsservice.EventService, reservationsservice.ReservationService, waitlistservice.WaitlistService) {
	eventRepo := eventsrepo.NewMongoEventRepository(cfg)
	reservationRepo := reservationsrepo.NewMongoReservationRepository(cfg)
	counterRepo := reservationsrepo.NewPositionCounterRepository(cfg)
	waitlistRepo := waitlistrepo.NewMongoWaitlistRepository(cfg)

	eventService := eventsservice.NewEventService(
		eventRepo,
		reservationRepo,
		eventsvalidator.NewEventValidator(cfg.Log),
		cfg,
	)
	reservationService := reservationsservice.NewReservationService(
		reservationRepo,
		counterRepo,
		eventRepo,
		reservationsvalidator.NewReservationValidator(cfg.Log),
		notifier,
		cfg,
	)
	waitlistService := waitlistservice.NewWaitlistService(
		waitlistRepo,
		eventRepo,
		waitlistvalidator.NewWaitlistValidator(cfg.Log),
		notifier,
		cfg,
	)

	cfg.Log.Info("Agenda services initialized", "database", cfg.MongoDatabaseName)
	return eventService, reservationService, waitlistService
}
