package main

import (
	"context"

	"rsvp/internal/reservations/events"
	"rsvp/internal/reservations/handler"
	"rsvp/internal/reservations/manager"
	"rsvp/internal/reservations/repository"
	"rsvp/internal/reservations/service"
	"rsvp/internal/reservations/validator"
	"rsvp/pkg/app"
	"rsvp/pkg/config"
	"rsvp/pkg/kafka"
	kafka_middleware "rsvp/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	application := app.NewApplication(cfg)

	repo := initRepository(cfg, application)
	publisher := initPublisher(cfg, application)

	if cfg.Client.Mongo != nil {
		application.OnShutdown("mongo", func(ctx context.Context) error {
			cfg.Client.GracefulShutdown(ctx, cfg.Log)
			return nil
		})
	}

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationManager := manager.New(repo, reservationValidator)
	reservationService := service.NewReservationService(reservationManager, publisher, cfg.Log)

	application.SetApp(
		handler.NewHealthHandler(repo, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
	)
	application.Run()
}

func initRepository(cfg *config.Config, application *app.Application) repository.Repository {
	var repo repository.Repository

	switch cfg.StoreBackend {
	case config.StoreSQLite:
		sqliteRepo, err := repository.NewSQLiteRepository(context.Background(), cfg)
		if err != nil {
			cfg.Log.Fatal("Failed to open SQLite store", "path", cfg.SQLitePath, "error", err)
		}
		repo = sqliteRepo
	default:
		cfg.SetMongo()
		repo = repository.NewMongoRepository(cfg)
	}

	application.OnShutdown("store", repo.Close)
	cfg.Log.Info("Reservation store initialized", "backend", cfg.StoreBackend)
	return repo
}

func initPublisher(cfg *config.Config, application *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events will not be published")
		return events.NopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.KafkaReservationsTopic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	publisher := events.NewKafkaPublisher(producer, ServiceName)
	application.OnShutdown("events", func(context.Context) error {
		return publisher.Close()
	})

	cfg.Log.Info("Kafka publisher initialized", "topic", producer.Topic())
	return publisher
}
