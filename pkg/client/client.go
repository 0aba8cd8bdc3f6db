package client

import (
	"context"
	"rsvp/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Client holds the process-wide connections to backing services.
type Client struct {
	Mongo *mongo.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	mc, err := ConnectMongo(context.Background(), mongoURI, mongoConnTimeout)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = mc
}

func (c *Client) GracefulShutdown(ctx context.Context, log *logger.Logger) {
	if c.Mongo == nil {
		return
	}
	if err := c.Mongo.Disconnect(ctx); err != nil {
		log.Error("Failed to disconnect from MongoDB", "error", err)
		return
	}
	log.Info("Disconnected from MongoDB")
}
