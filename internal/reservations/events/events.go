// Package events publishes reservation lifecycle changes after they are
// committed to the store.
package events

import (
	"context"
	"strconv"
	"time"

	"rsvp/pkg/kafka"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
)

type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventConfirmed EventType = "reservation.confirmed"
	EventUpdated   EventType = "reservation.updated"
	EventCancelled EventType = "reservation.cancelled"
)

const SchemaVersion = "1"

// ReservationEvent is the payload written to the reservations topic.
// Reservation is nil for EventCancelled.
type ReservationEvent struct {
	Type          EventType          `json:"type"`
	ReservationID int64              `json:"reservation_id"`
	Reservation   *model.Reservation `json:"reservation,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

func Created(r *model.Reservation) ReservationEvent {
	return newEvent(EventCreated, r)
}

func Confirmed(r *model.Reservation) ReservationEvent {
	return newEvent(EventConfirmed, r)
}

func Updated(r *model.Reservation) ReservationEvent {
	return newEvent(EventUpdated, r)
}

func Cancelled(id int64) ReservationEvent {
	return ReservationEvent{
		Type:          EventCancelled,
		ReservationID: id,
		OccurredAt:    time.Now().UTC(),
	}
}

func newEvent(t EventType, r *model.Reservation) ReservationEvent {
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		Reservation:   r,
		OccurredAt:    time.Now().UTC(),
	}
}

// Key partitions events by resource so changes to one resource stay ordered.
// Cancellations only know the reservation id.
func (e ReservationEvent) Key() string {
	if e.Reservation != nil && e.Reservation.ResourceID != "" {
		return e.Reservation.ResourceID
	}
	return strconv.FormatInt(e.ReservationID, 10)
}

type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.Key()).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithCorrelationID(logger.RequestIDFromContext(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
