// Package manager implements reservation operations on top of a
// repository.Repository. A Manager holds no state of its own and makes exactly
// one store call per operation; overlap exclusion is left to the store.
package manager

import (
	"context"
	"errors"

	"rsvp/internal/reservations/conflict"
	rsvperrors "rsvp/internal/reservations/errors"
	"rsvp/internal/reservations/repository"
	"rsvp/internal/reservations/validator"
	"rsvp/pkg/model"
)

type Manager struct {
	repo      repository.Repository
	validator *validator.ReservationValidator
}

func New(repo repository.Repository, v *validator.ReservationValidator) *Manager {
	return &Manager{repo: repo, validator: v}
}

// Reserve stores rsvp as a new reservation. An unset or unknown status becomes
// pending. rsvp itself is not modified.
func (m *Manager) Reserve(ctx context.Context, rsvp *model.Reservation) (*model.Reservation, error) {
	if err := m.validator.Validate(rsvp); err != nil {
		return nil, err
	}

	in := *rsvp
	in.ID = 0
	in.Status = model.StatusOrDefault(in.Status)

	saved, err := m.repo.Insert(ctx, &in)
	if err != nil {
		return nil, classify(err)
	}
	return saved, nil
}

// ChangeStatus confirms a pending reservation. A reservation that is absent or
// not pending yields ErrNotFound.
func (m *Manager) ChangeStatus(ctx context.Context, id int64) (*model.Reservation, error) {
	if err := m.validator.ValidateID(id); err != nil {
		return nil, err
	}
	rsvp, err := m.repo.ConfirmPending(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return rsvp, nil
}

func (m *Manager) UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error) {
	if err := m.validator.ValidateID(id); err != nil {
		return nil, err
	}
	rsvp, err := m.repo.UpdateNote(ctx, id, note)
	if err != nil {
		return nil, classify(err)
	}
	return rsvp, nil
}

func (m *Manager) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	if err := m.validator.ValidateID(id); err != nil {
		return nil, err
	}
	rsvp, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return rsvp, nil
}

// Delete removes a reservation regardless of status. Deleting an absent id
// succeeds.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.validator.ValidateID(id); err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return classify(err)
	}
	return nil
}

// Query returns one offset page of reservations overlapping [Start, End),
// ordered by id.
func (m *Manager) Query(ctx context.Context, query *model.ReservationQuery) ([]*model.Reservation, error) {
	if err := m.validator.ValidateQuery(query); err != nil {
		return nil, err
	}

	var q model.ReservationQuery
	if query != nil {
		q = *query
	}
	q = q.Normalize()

	rows, err := m.repo.Query(ctx, repository.QueryParams{
		UserID:     q.UserID,
		ResourceID: q.ResourceID,
		Status:     q.Status,
		Start:      q.Start,
		End:        q.End,
		Offset:     int64(q.Page-1) * int64(q.PageSize),
		Limit:      q.PageSize,
		Desc:       q.Desc,
	})
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Filter returns one keyset page starting at filter.Cursor together with the
// cursors of the neighbouring pages.
func (m *Manager) Filter(ctx context.Context, filter *model.ReservationFilter) (*model.FilterPager, []*model.Reservation, error) {
	var f model.ReservationFilter
	if filter != nil {
		f = *filter
	}
	f = f.Normalize()

	rows, err := m.repo.Filter(ctx, repository.FilterParams{
		UserID:     f.UserID,
		ResourceID: f.ResourceID,
		Status:     f.Status,
		Cursor:     f.Cursor,
		Limit:      f.PageSize + 2,
		Desc:       f.Desc,
	})
	if err != nil {
		return nil, nil, classify(err)
	}

	pager, page := paginate(rows, f.Cursor, f.PageSize)
	return pager, page, nil
}

// paginate cuts one page out of rows fetched with two rows of lookahead. When
// the first row is the cursor itself it belongs to the previous page and is
// skipped.
func paginate(rows []*model.Reservation, cursor int64, pageSize int) (*model.FilterPager, []*model.Reservation) {
	hasPrev := len(rows) > 0 && rows[0].ID == cursor

	start := 0
	if hasPrev {
		start = 1
	}

	hasNext := len(rows)-start > pageSize

	end := len(rows)
	if hasNext {
		end = start + pageSize
	}

	pager := &model.FilterPager{Prev: model.NoPage, Next: model.NoPage}
	if hasPrev {
		pager.Prev = rows[start-1].ID
	}
	if hasNext {
		pager.Next = rows[end-1].ID
	}

	page := rows[start:end]
	if page == nil {
		page = []*model.Reservation{}
	}
	return pager, page
}

// classify turns a store error into the domain taxonomy. It is the only place
// store errors are interpreted.
func classify(err error) error {
	if errors.Is(err, repository.ErrNoRows) {
		return rsvperrors.ErrNotFound
	}

	var ce *repository.ConstraintError
	if errors.As(err, &ce) && ce.IsReservationOverlap() {
		return &rsvperrors.ConflictError{Info: conflict.Parse(ce.Detail)}
	}

	return &rsvperrors.DBError{Err: err}
}
