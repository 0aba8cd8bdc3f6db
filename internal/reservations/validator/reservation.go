package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	rsvperrors "rsvp/internal/reservations/errors"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
)

// Timestamps must fall in [minTime, maxTime): four-digit years are all that
// JSON encoding and the conflict diagnostic can render.
var (
	minTime = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)
)

func inRange(t time.Time) bool {
	return !t.Before(minTime) && t.Before(maxTime)
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New()

	if err := v.RegisterValidation("identifier", validateIdentifier); err != nil {
		log.Fatal("Failed to register 'identifier' validator",
			"error", err,
		)
	}

	log.Debug("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// validateIdentifier rejects blank ids and ids carrying control characters.
func validateIdentifier(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Validate checks a reservation before it is written. It never touches the store.
func (v *ReservationValidator) Validate(rsvp *model.Reservation) error {
	if rsvp == nil {
		return rsvperrors.ErrInvalidTime
	}

	if err := v.validate.Struct(rsvp); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(rsvp, validationErrs)
		}
		return err
	}

	if !rsvp.End.After(rsvp.Start) {
		return fmt.Errorf("%w: end must be after start", rsvperrors.ErrInvalidTime)
	}
	if !inRange(rsvp.Start) || !inRange(rsvp.End) {
		return fmt.Errorf("%w: timestamps must fall in years 0001-9999", rsvperrors.ErrInvalidTime)
	}

	return nil
}

func (v *ReservationValidator) ValidateID(id int64) error {
	if id <= 0 {
		return rsvperrors.InvalidReservationID(id)
	}
	return nil
}

// ValidateQuery rejects a window whose bounds are out of order or out of range.
func (v *ReservationValidator) ValidateQuery(query *model.ReservationQuery) error {
	if query == nil {
		return nil
	}
	if query.Start != nil && query.End != nil && !query.End.After(*query.Start) {
		return fmt.Errorf("%w: end must be after start", rsvperrors.ErrInvalidTime)
	}
	for _, bound := range []*time.Time{query.Start, query.End} {
		if bound != nil && !inRange(*bound) {
			return fmt.Errorf("%w: timestamps must fall in years 0001-9999", rsvperrors.ErrInvalidTime)
		}
	}
	return nil
}

// translateValidationErrors reports the first failing field in declaration
// order as its domain error.
func (v *ReservationValidator) translateValidationErrors(rsvp *model.Reservation, errs validator.ValidationErrors) error {
	for _, err := range errs {
		switch err.StructField() {
		case "UserID":
			return rsvperrors.InvalidUserID(rsvp.UserID)
		case "ResourceID":
			return rsvperrors.InvalidResourceID(rsvp.ResourceID)
		case "Start", "End":
			message := fmt.Sprintf("%s is required", strings.ToLower(err.Field()))
			if err.Tag() == "gtfield" {
				message = "end must be after start"
			}
			return fmt.Errorf("%w: %s", rsvperrors.ErrInvalidTime, message)
		}
	}

	v.logger.Warn("Unhandled reservation validation error", "error", errs.Error())
	return errs
}
