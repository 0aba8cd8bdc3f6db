package service

import (
	"context"
	"errors"

	"rsvp/internal/reservations/conflict"
	rsvperrors "rsvp/internal/reservations/errors"
	"rsvp/internal/reservations/events"
	apperrors "rsvp/pkg/errors"
	"rsvp/pkg/logger"
	"rsvp/pkg/model"
	"rsvp/pkg/sanitizer"
)

type ReservationService interface {
	Reserve(ctx context.Context, rsvp *model.Reservation) (*model.Reservation, error)
	Confirm(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error)
	Cancel(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Reservation, error)
	Query(ctx context.Context, query *model.ReservationQuery) ([]*model.Reservation, error)
	Filter(ctx context.Context, filter *model.ReservationFilter) (*model.FilterPager, []*model.Reservation, error)
}

// ReservationManager is implemented by *manager.Manager.
type ReservationManager interface {
	Reserve(ctx context.Context, rsvp *model.Reservation) (*model.Reservation, error)
	ChangeStatus(ctx context.Context, id int64) (*model.Reservation, error)
	UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error)
	Get(ctx context.Context, id int64) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, query *model.ReservationQuery) ([]*model.Reservation, error)
	Filter(ctx context.Context, filter *model.ReservationFilter) (*model.FilterPager, []*model.Reservation, error)
}

type reservationService struct {
	manager   ReservationManager
	publisher events.Publisher
	log       *logger.Logger
}

func NewReservationService(
	manager ReservationManager,
	publisher events.Publisher,
	log *logger.Logger,
) ReservationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &reservationService{
		manager:   manager,
		publisher: publisher,
		log:       log,
	}
}

func (s *reservationService) Reserve(ctx context.Context, rsvp *model.Reservation) (*model.Reservation, error) {
	log := s.log.FromContext(ctx)
	if rsvp == nil {
		return nil, apperrors.InvalidInput("Reservation body is required")
	}

	in := *rsvp
	s.sanitize(&in)

	saved, err := s.manager.Reserve(ctx, &in)
	if err != nil {
		appErr := toAppError(err)
		logFailure(log, "Failed to create reservation", appErr,
			"user_id", in.UserID,
			"resource_id", in.ResourceID,
			"start", in.Start,
			"end", in.End,
		)
		return nil, appErr
	}

	log.Info("Reservation created successfully",
		"id", saved.ID,
		"user_id", saved.UserID,
		"resource_id", saved.ResourceID,
		"status", saved.Status,
	)
	s.publish(ctx, events.Created(saved))

	return saved, nil
}

func (s *reservationService) Confirm(ctx context.Context, id int64) (*model.Reservation, error) {
	log := s.log.FromContext(ctx)

	rsvp, err := s.manager.ChangeStatus(ctx, id)
	if err != nil {
		appErr := toAppError(err, id)
		logFailure(log, "Failed to confirm reservation", appErr, "id", id)
		return nil, appErr
	}

	log.Info("Reservation confirmed", "id", id, "resource_id", rsvp.ResourceID)
	s.publish(ctx, events.Confirmed(rsvp))

	return rsvp, nil
}

func (s *reservationService) UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error) {
	log := s.log.FromContext(ctx)

	rsvp, err := s.manager.UpdateNote(ctx, id, sanitizer.SanitizeNote(note))
	if err != nil {
		appErr := toAppError(err, id)
		logFailure(log, "Failed to update reservation note", appErr, "id", id)
		return nil, appErr
	}

	log.Info("Reservation note updated", "id", id)
	s.publish(ctx, events.Updated(rsvp))

	return rsvp, nil
}

func (s *reservationService) Cancel(ctx context.Context, id int64) error {
	log := s.log.FromContext(ctx)

	if err := s.manager.Delete(ctx, id); err != nil {
		appErr := toAppError(err, id)
		logFailure(log, "Failed to cancel reservation", appErr, "id", id)
		return appErr
	}

	log.Info("Reservation cancelled", "id", id)
	s.publish(ctx, events.Cancelled(id))

	return nil
}

func (s *reservationService) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	rsvp, err := s.manager.Get(ctx, id)
	if err != nil {
		appErr := toAppError(err, id)
		logFailure(s.log.FromContext(ctx), "Failed to get reservation", appErr, "id", id)
		return nil, appErr
	}
	return rsvp, nil
}

func (s *reservationService) Query(ctx context.Context, query *model.ReservationQuery) ([]*model.Reservation, error) {
	var q model.ReservationQuery
	if query != nil {
		q = *query
	}
	q.UserID = sanitizer.SanitizeIdentifier(q.UserID)
	q.ResourceID = sanitizer.SanitizeIdentifier(q.ResourceID)

	rows, err := s.manager.Query(ctx, &q)
	if err != nil {
		appErr := toAppError(err)
		logFailure(s.log.FromContext(ctx), "Failed to query reservations", appErr,
			"user_id", q.UserID,
			"resource_id", q.ResourceID,
			"page", q.Page,
		)
		return nil, appErr
	}
	return rows, nil
}

func (s *reservationService) Filter(ctx context.Context, filter *model.ReservationFilter) (*model.FilterPager, []*model.Reservation, error) {
	var f model.ReservationFilter
	if filter != nil {
		f = *filter
	}
	f.UserID = sanitizer.SanitizeIdentifier(f.UserID)
	f.ResourceID = sanitizer.SanitizeIdentifier(f.ResourceID)

	pager, rows, err := s.manager.Filter(ctx, &f)
	if err != nil {
		appErr := toAppError(err)
		logFailure(s.log.FromContext(ctx), "Failed to filter reservations", appErr,
			"user_id", f.UserID,
			"resource_id", f.ResourceID,
			"cursor", f.Cursor,
		)
		return nil, nil, appErr
	}
	return pager, rows, nil
}

func (s *reservationService) sanitize(rsvp *model.Reservation) {
	rsvp.UserID = sanitizer.SanitizeIdentifier(rsvp.UserID)
	rsvp.ResourceID = sanitizer.SanitizeIdentifier(rsvp.ResourceID)
	rsvp.Note = sanitizer.SanitizeNote(rsvp.Note)
	rsvp.Start = rsvp.Start.UTC()
	rsvp.End = rsvp.End.UTC()
}

// publish never fails the request: the write is already committed.
func (s *reservationService) publish(ctx context.Context, event events.ReservationEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.FromContext(ctx).Error("Failed to publish reservation event",
			"event_type", event.Type,
			"id", event.ReservationID,
			"error", err,
		)
	}
}

// logFailure logs client errors at Warn and everything else at Error.
func logFailure(log *logger.Logger, msg string, appErr *apperrors.AppError, args ...any) {
	args = append(args, "code", appErr.Code, "error", appErr)
	if appErr.StatusCode() < 500 {
		log.Warn(msg, args...)
		return
	}
	log.Error(msg, args...)
}

// toAppError maps the reservation error taxonomy onto AppError. id, when
// given, is reported in NOT_FOUND details.
func toAppError(err error, id ...int64) *apperrors.AppError {
	var conflictErr *rsvperrors.ConflictError

	switch {
	case errors.As(err, &conflictErr):
		return apperrors.FailedPrecondition("Reservation conflicts with an existing reservation", conflictDetails(conflictErr.Info))
	case errors.Is(err, rsvperrors.ErrNotFound):
		var ref any
		if len(id) > 0 {
			ref = id[0]
		}
		return apperrors.NotFoundWithID("Reservation", ref)
	case errors.Is(err, rsvperrors.ErrInvalidTime):
		return apperrors.BadRequest(apperrors.CodeInvalidTime, err.Error(), err)
	case errors.Is(err, rsvperrors.ErrInvalidReservationID):
		return apperrors.BadRequest(apperrors.CodeInvalidReservationID, err.Error(), err)
	case errors.Is(err, rsvperrors.ErrInvalidUserID):
		return apperrors.BadRequest(apperrors.CodeInvalidUserID, err.Error(), err)
	case errors.Is(err, rsvperrors.ErrInvalidResourceID):
		return apperrors.BadRequest(apperrors.CodeInvalidResourceID, err.Error(), err)
	case errors.Is(err, rsvperrors.ErrDB):
		return apperrors.DBError(err)
	case apperrors.IsAppError(err):
		return apperrors.AsAppError(err)
	default:
		return apperrors.Unknown(err)
	}
}

func conflictDetails(info conflict.Info) map[string]any {
	switch info := info.(type) {
	case conflict.Parsed:
		return map[string]any{
			"new": info.Conflict.New,
			"old": info.Conflict.Old,
		}
	case conflict.Unparsed:
		return map[string]any{"raw": info.Raw}
	default:
		return nil
	}
}
