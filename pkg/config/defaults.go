package config

import "time"

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"

	DefaultStoreBackend = StoreMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rsvp"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultSQLitePath = "rsvp.db"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaEnabled           = false
	DefaultKafkaReservationsTopic = "reservations.events"
	DefaultKafkaDLQTopic          = ""
)
