package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	mongoMigration "rsvp/internal/migrations/mongo"
	sqliteMigration "rsvp/internal/migrations/sqlite"
	"rsvp/internal/reservations/repository"
	"rsvp/pkg/client"
	"rsvp/pkg/config"
	"rsvp/pkg/logger"
)

const JobName = "rsvp-migrate"

func main() {
	app := &cli.App{
		Name:  JobName,
		Usage: "create or upgrade the reservations store schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Usage:   "store backend to migrate (mongo|sqlite)",
				Value:   config.DefaultStoreBackend,
				EnvVars: []string{config.EnvStoreBackend},
			},
			&cli.StringFlag{
				Name:    "mongo-uri",
				Value:   config.DefaultMongoURI,
				EnvVars: []string{config.EnvMongoURI},
			},
			&cli.StringFlag{
				Name:    "mongo-database",
				Value:   config.DefaultMongoDatabaseName,
				EnvVars: []string{config.EnvMongoDatabaseName},
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   config.DefaultSQLitePath,
				EnvVars: []string{config.EnvSQLitePath},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "overall migration deadline",
				Value: 120 * time.Second,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   config.DefaultLogLevel,
				EnvVars: []string{config.EnvLogLevel},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := logger.New(logger.Config{
		Level:   c.String("log-level"),
		Format:  logger.JSON,
		Service: JobName,
	})

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	store := c.String("store")
	log.Info("Starting migration job", "store", store)

	var err error
	switch store {
	case config.StoreMongo:
		err = migrateMongo(ctx, c.String("mongo-uri"), c.String("mongo-database"), log)
	case config.StoreSQLite:
		err = migrateSQLite(ctx, c.String("sqlite-path"), log)
	default:
		err = fmt.Errorf("unknown store %q, expected %s or %s", store, config.StoreMongo, config.StoreSQLite)
	}
	if err != nil {
		log.Error("Migration failed", "store", store, "error", err)
		return cli.Exit(err.Error(), 1)
	}

	log.Info("Migration completed successfully", "store", store)
	return nil
}

func migrateMongo(ctx context.Context, uri, database string, log *logger.Logger) error {
	mc, err := client.ConnectMongo(ctx, uri, config.DefaultMongoConnTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if err := mc.Disconnect(context.Background()); err != nil {
			log.Warn("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	return mongoMigration.RunMigration(ctx, mc.Database(database), log)
}

// migrateSQLite opens the database file, which applies any pending schema
// version, and closes it again.
func migrateSQLite(ctx context.Context, path string, log *logger.Logger) error {
	repo, err := repository.OpenSQLite(ctx, path, repository.DefaultTimeouts)
	if err != nil {
		return err
	}
	log.Info("SQLite schema is current", "path", path, "version", sqliteMigration.SchemaVersion)
	return repo.Close(ctx)
}
