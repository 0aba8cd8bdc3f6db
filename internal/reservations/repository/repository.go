package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rsvp/internal/reservations/conflict"
	"rsvp/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Identity of the overlap exclusion, mirrored from the relational schema the
// service originally ran on. Both stores report overlaps with these values.
const (
	CodeExclusionViolation = "23P01"
	SchemaName             = "rsvp"
	TableName              = "reservations"
	OverlapConstraint      = "reservations_conflict"
)

// ErrNoRows is returned when a lookup or conditional update matched nothing.
var ErrNoRows = errors.New("no rows in result set")

// ConstraintError is a store-side integrity violation.
type ConstraintError struct {
	Code       string
	Schema     string
	Table      string
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %q on %s.%s violated (%s): %s", e.Constraint, e.Schema, e.Table, e.Code, e.Detail)
}

// IsReservationOverlap reports whether e is the per-resource overlap exclusion.
func (e *ConstraintError) IsReservationOverlap() bool {
	return e.Code == CodeExclusionViolation && e.Schema == SchemaName && e.Table == TableName
}

func newOverlapError(rejected, existing model.ReservationWindow) *ConstraintError {
	return &ConstraintError{
		Code:       CodeExclusionViolation,
		Schema:     SchemaName,
		Table:      TableName,
		Constraint: OverlapConstraint,
		Detail:     conflict.FormatDetail(rejected, existing),
	}
}

type QueryParams struct {
	UserID     string
	ResourceID string
	Status     model.ReservationStatus
	Start      *time.Time
	End        *time.Time
	Offset     int64
	Limit      int
	Desc       bool
}

type FilterParams struct {
	UserID     string
	ResourceID string
	Status     model.ReservationStatus
	// Cursor is inclusive. Zero means no lower (asc) or upper (desc) bound.
	Cursor int64
	Limit  int
	Desc   bool
}

// Repository persists reservations. Every method is a single round trip and
// Insert enforces the overlap exclusion atomically.
type Repository interface {
	Insert(ctx context.Context, r *model.Reservation) (*model.Reservation, error)
	ConfirmPending(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error)
	Get(ctx context.Context, id int64) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, p QueryParams) ([]*model.Reservation, error)
	Filter(ctx context.Context, p FilterParams) ([]*model.Reservation, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

var DefaultTimeouts = Timeouts{Read: 15 * time.Second, Write: 15 * time.Second}

// withTimeout bounds ctx by timeout unless it already expires sooner. Inside a
// mongo transaction the session context is returned untouched.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
