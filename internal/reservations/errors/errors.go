package errors

import (
	"errors"
	"fmt"

	"rsvp/internal/reservations/conflict"
)

var (
	ErrNotFound = errors.New("no reservation found by the given condition")

	ErrInvalidTime = errors.New("invalid start or end time for the reservation")

	ErrInvalidReservationID = errors.New("invalid reservation id")

	ErrInvalidUserID = errors.New("invalid user id")

	ErrInvalidResourceID = errors.New("invalid resource id")

	ErrConflictReservation = errors.New("conflict reservation")

	ErrDB = errors.New("database error")

	ErrUnknown = errors.New("unknown data store error")
)

func InvalidReservationID(id int64) error {
	return fmt.Errorf("%w: %d", ErrInvalidReservationID, id)
}

func InvalidUserID(userID string) error {
	return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
}

func InvalidResourceID(resourceID string) error {
	return fmt.Errorf("%w: %q", ErrInvalidResourceID, resourceID)
}

// ConflictError is returned when the store rejects a write because the
// reservation window overlaps an active reservation on the same resource.
type ConflictError struct {
	Info conflict.Info
}

func (e *ConflictError) Error() string {
	switch info := e.Info.(type) {
	case conflict.Parsed:
		return fmt.Sprintf("%s: %s", ErrConflictReservation, info.Conflict)
	case conflict.Unparsed:
		return fmt.Sprintf("%s: %s", ErrConflictReservation, info.Raw)
	default:
		return ErrConflictReservation.Error()
	}
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflictReservation
}

// DBError wraps any store failure the manager does not classify further.
type DBError struct {
	Err error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDB, e.Err)
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func (e *DBError) Is(target error) bool {
	return target == ErrDB
}
