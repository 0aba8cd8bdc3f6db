package validator

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rsvperrors "rsvp/internal/reservations/errors"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
)

func newTestValidator() *ReservationValidator {
	return NewReservationValidator(logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Output:  io.Discard,
		Service: "test",
	}))
}

func validReservation() *model.Reservation {
	start := time.Date(2024, 1, 25, 22, 0, 0, 0, time.UTC)
	return model.NewPendingReservation("aliceid", "ixia-test-1", start, start.Add(72*time.Hour), "hello")
}

func TestValidate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		mutate  func(r *model.Reservation)
		wantErr error
	}{
		{
			name:    "valid reservation",
			mutate:  func(r *model.Reservation) {},
			wantErr: nil,
		},
		{
			name:    "empty note is allowed",
			mutate:  func(r *model.Reservation) { r.Note = "" },
			wantErr: nil,
		},
		{
			name:    "missing user id",
			mutate:  func(r *model.Reservation) { r.UserID = "" },
			wantErr: rsvperrors.ErrInvalidUserID,
		},
		{
			name:    "blank user id",
			mutate:  func(r *model.Reservation) { r.UserID = "   " },
			wantErr: rsvperrors.ErrInvalidUserID,
		},
		{
			name:    "missing resource id",
			mutate:  func(r *model.Reservation) { r.ResourceID = "" },
			wantErr: rsvperrors.ErrInvalidResourceID,
		},
		{
			name:    "resource id with control characters",
			mutate:  func(r *model.Reservation) { r.ResourceID = "room\n1" },
			wantErr: rsvperrors.ErrInvalidResourceID,
		},
		{
			name:    "missing start",
			mutate:  func(r *model.Reservation) { r.Start = time.Time{} },
			wantErr: rsvperrors.ErrInvalidTime,
		},
		{
			name:    "missing end",
			mutate:  func(r *model.Reservation) { r.End = time.Time{} },
			wantErr: rsvperrors.ErrInvalidTime,
		},
		{
			name:    "start equals end",
			mutate:  func(r *model.Reservation) { r.End = r.Start },
			wantErr: rsvperrors.ErrInvalidTime,
		},
		{
			name:    "start after end",
			mutate:  func(r *model.Reservation) { r.Start, r.End = r.End, r.Start },
			wantErr: rsvperrors.ErrInvalidTime,
		},
		{
			name: "far future window",
			mutate: func(r *model.Reservation) {
				r.Start = time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
				r.End = r.Start.Add(time.Hour)
			},
			wantErr: nil,
		},
		{
			name: "last representable hour",
			mutate: func(r *model.Reservation) {
				r.Start = time.Date(9999, 12, 31, 23, 0, 0, 0, time.UTC)
				r.End = r.Start.Add(time.Hour - time.Nanosecond)
			},
			wantErr: nil,
		},
		{
			name: "end past year 9999",
			mutate: func(r *model.Reservation) {
				r.Start = time.Date(9999, 12, 31, 23, 0, 0, 0, time.UTC)
				r.End = r.Start.Add(time.Hour)
			},
			wantErr: rsvperrors.ErrInvalidTime,
		},
		{
			name: "five digit year",
			mutate: func(r *model.Reservation) {
				r.Start = time.Date(300000, 1, 1, 0, 0, 0, 0, time.UTC)
				r.End = r.Start.Add(time.Hour)
			},
			wantErr: rsvperrors.ErrInvalidTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsvp := validReservation()
			tt.mutate(rsvp)

			err := v.Validate(rsvp)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_UserIDCheckedBeforeTime(t *testing.T) {
	v := newTestValidator()

	err := v.Validate(&model.Reservation{ResourceID: "room"})
	assert.True(t, errors.Is(err, rsvperrors.ErrInvalidUserID))
}

func TestValidateID(t *testing.T) {
	v := newTestValidator()

	for _, id := range []int64{0, -5} {
		err := v.ValidateID(id)
		require.Error(t, err)
		assert.ErrorIs(t, err, rsvperrors.ErrInvalidReservationID)
	}

	assert.NoError(t, v.ValidateID(1))
}

func TestValidateQuery(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.NoError(t, v.ValidateQuery(&model.ReservationQuery{}))
	assert.NoError(t, v.ValidateQuery(&model.ReservationQuery{Start: &start}))
	assert.NoError(t, v.ValidateQuery(&model.ReservationQuery{Start: &start, End: &end}))
	assert.ErrorIs(t, v.ValidateQuery(&model.ReservationQuery{Start: &end, End: &start}), rsvperrors.ErrInvalidTime)
	assert.ErrorIs(t, v.ValidateQuery(&model.ReservationQuery{Start: &start, End: &start}), rsvperrors.ErrInvalidTime)

	farEnd := time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, v.ValidateQuery(&model.ReservationQuery{End: &farEnd}), rsvperrors.ErrInvalidTime)
	assert.ErrorIs(t, v.ValidateQuery(&model.ReservationQuery{Start: &start, End: &farEnd}), rsvperrors.ErrInvalidTime)
}
