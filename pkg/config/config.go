package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"rsvp/pkg/client"
	kafka_config "rsvp/pkg/kafka/config"
	"rsvp/pkg/logger"
)

var (
	mongoSchemeRegex  = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex   = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	validStoreBackend = map[string]bool{StoreMongo: true, StoreSQLite: true}
)

type Config struct {
	StoreBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	SQLitePath string

	Port     string
	LogLevel string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	KafkaEnabled           bool
	KafkaReservationsTopic string
	KafkaDLQTopic          string
	Kafka                  *kafka_config.Config

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment, exits on invalid configuration and logs the
// result.
func Load(serviceName string) *Config {
	cfg, err := FromEnv(serviceName)
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds the configuration without exiting. The returned Config always
// carries a usable logger, even when err is non-nil.
func FromEnv(serviceName string) (*Config, error) {
	cfg := &Config{
		StoreBackend: getEnvStr(EnvStoreBackend, DefaultStoreBackend),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		SQLitePath: getEnvStr(EnvSQLitePath, DefaultSQLitePath),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		KafkaEnabled:           getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaReservationsTopic: getEnvStr(EnvKafkaReservationsTopic, DefaultKafkaReservationsTopic),
		KafkaDLQTopic:          getEnvStr(EnvKafkaDLQTopic, DefaultKafkaDLQTopic),

		Client: client.NewClient(),
	}
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	if cfg.KafkaEnabled {
		kcfg, err := kafka_config.Load()
		if err != nil {
			return cfg, err
		}
		cfg.Kafka = kcfg
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if !validStoreBackend[cfg.StoreBackend] {
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [%s, %s], got: %s", StoreMongo, StoreSQLite, cfg.StoreBackend))
	}

	switch cfg.StoreBackend {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !mongoSchemeRegex.MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			errors = append(errors, "SQLitePath cannot be empty")
		}
	}

	for name, d := range map[string]time.Duration{
		"RequestTimeout":  cfg.RequestTimeout,
		"IdempotencyTTL":  cfg.IdempotencyTTL,
		"ReadTimeout":     cfg.ReadTimeout,
		"WriteTimeout":    cfg.WriteTimeout,
		"IdleTimeout":     cfg.IdleTimeout,
		"ShutdownTimeout": cfg.ShutdownTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.KafkaEnabled && cfg.KafkaReservationsTopic == "" {
		errors = append(errors, "KafkaReservationsTopic cannot be empty when Kafka is enabled")
	}
	if cfg.KafkaDLQTopic != "" && cfg.KafkaDLQTopic == cfg.KafkaReservationsTopic {
		errors = append(errors, "KafkaDLQTopic must differ from KafkaReservationsTopic")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	args := []any{
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"sqlite_path", cfg.SQLitePath,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_reservations_topic", cfg.KafkaReservationsTopic,
		"kafka_dlq_topic", cfg.KafkaDLQTopic,
	}
	if cfg.Kafka != nil {
		args = append(args, cfg.Kafka.LogArgs()...)
	}
	cfg.Log.Info("Configuration loaded successfully", args...)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
