package model

import (
	"strings"
	"time"
)

type ReservationStatus int

const (
	StatusUnknown ReservationStatus = iota
	StatusPending
	StatusConfirmed
	StatusBlocked
)

var statusNames = map[ReservationStatus]string{
	StatusUnknown:   "unknown",
	StatusPending:   "pending",
	StatusConfirmed: "confirmed",
	StatusBlocked:   "blocked",
}

func (s ReservationStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// IsActive reports whether a reservation in this status takes part in the
// per-resource overlap exclusion.
func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ParseReservationStatus decodes a stored or inbound status name.
// Anything that is not a known, concrete status (including "" and "unknown")
// decodes to StatusPending.
func ParseReservationStatus(name string) ReservationStatus {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pending":
		return StatusPending
	case "confirmed":
		return StatusConfirmed
	case "blocked":
		return StatusBlocked
	default:
		return StatusPending
	}
}

// StatusOrDefault maps StatusUnknown and out-of-range values to StatusPending.
func StatusOrDefault(s ReservationStatus) ReservationStatus {
	switch s {
	case StatusPending, StatusConfirmed, StatusBlocked:
		return s
	default:
		return StatusPending
	}
}

func (s ReservationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ReservationStatus) UnmarshalText(text []byte) error {
	*s = ParseReservationStatus(string(text))
	return nil
}

// Reservation holds a half-open [Start, End) booking of ResourceID by UserID.
type Reservation struct {
	ID         int64             `json:"id"`
	UserID     string            `json:"user_id" validate:"required,identifier"`
	ResourceID string            `json:"resource_id" validate:"required,identifier"`
	Start      time.Time         `json:"start" validate:"required"`
	End        time.Time         `json:"end" validate:"required,gtfield=Start"`
	Note       string            `json:"note"`
	Status     ReservationStatus `json:"status"`
}

// NewPendingReservation builds an unsaved reservation in StatusPending.
func NewPendingReservation(userID, resourceID string, start, end time.Time, note string) *Reservation {
	return &Reservation{
		UserID:     userID,
		ResourceID: resourceID,
		Start:      start.UTC(),
		End:        end.UTC(),
		Note:       note,
		Status:     StatusPending,
	}
}

// Window returns the resource/time window the reservation occupies.
func (r *Reservation) Window() ReservationWindow {
	return ReservationWindow{
		ResourceID: r.ResourceID,
		Start:      r.Start,
		End:        r.End,
	}
}

type ReservationWindow struct {
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

func (w ReservationWindow) Overlaps(other ReservationWindow) bool {
	return w.ResourceID == other.ResourceID && w.Start.Before(other.End) && other.Start.Before(w.End)
}
