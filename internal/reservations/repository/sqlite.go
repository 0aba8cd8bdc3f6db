package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrations "rsvp/internal/migrations/sqlite"
	"rsvp/pkg/config"
	"rsvp/pkg/model"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriver = "sqlite"

	// Write transactions take the database lock at BEGIN, so the overlap check
	// and the insert that follows it cannot interleave with another writer.
	sqliteParams = "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	reservationColumns = "id, user_id, resource_id, status, start_us, end_us, note"

	// Stored timestamps carry microseconds, matching conflict.FormatTimestamp.
	timestampPrecision = time.Microsecond
)

type SQLiteRepository struct {
	db       *sql.DB
	timeouts Timeouts
}

func NewSQLiteRepository(ctx context.Context, cfg *config.Config) (*SQLiteRepository, error) {
	return OpenSQLite(ctx, cfg.SQLitePath, Timeouts{Read: cfg.ReadTimeout, Write: cfg.WriteTimeout})
}

// OpenSQLite opens (creating if needed) the database file at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string, timeouts Timeouts) (*SQLiteRepository, error) {
	db, err := sql.Open(sqliteDriver, path+"?"+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := sqlitemigrations.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db, timeouts: timeouts}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var (
		r              model.Reservation
		status         string
		startUs, endUs int64
	)
	if err := s.Scan(&r.ID, &r.UserID, &r.ResourceID, &status, &startUs, &endUs, &r.Note); err != nil {
		return nil, err
	}
	r.Status = model.ParseReservationStatus(status)
	r.Start = time.UnixMicro(startUs).UTC()
	r.End = time.UnixMicro(endUs).UTC()
	return &r, nil
}

func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(timestampPrecision)
}

func scanOne(row *sql.Row, op string) (*model.Reservation, error) {
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s reservation: %w", op, err)
	}
	return r, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	start, end := storedTime(res.Start), storedTime(res.End)

	if res.Status.IsActive() {
		var (
			existing       model.ReservationWindow
			startUs, endUs int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT resource_id, start_us, end_us FROM reservations
			 WHERE resource_id = ? AND status IN ('pending', 'confirmed')
			   AND start_us < ? AND end_us > ?
			 ORDER BY id LIMIT 1`,
			res.ResourceID, end.UnixMicro(), start.UnixMicro(),
		).Scan(&existing.ResourceID, &startUs, &endUs)

		switch {
		case err == nil:
			existing.Start = time.UnixMicro(startUs).UTC()
			existing.End = time.UnixMicro(endUs).UTC()
			rejected := model.ReservationWindow{ResourceID: res.ResourceID, Start: start, End: end}
			return nil, newOverlapError(rejected, existing)
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
	}

	now := time.Now().UTC().UnixMicro()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, resource_id, status, start_us, end_us, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.UserID, res.ResourceID, res.Status.String(), start.UnixMicro(), end.UnixMicro(), res.Note, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read reservation id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	saved := *res
	saved.ID = id
	saved.Start, saved.End = start, end
	return &saved, nil
}

func (r *SQLiteRepository) ConfirmPending(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`UPDATE reservations SET status = 'confirmed', updated_at = ?
		 WHERE id = ? AND status = 'pending'
		 RETURNING `+reservationColumns,
		time.Now().UTC().UnixMicro(), id,
	)
	return scanOne(row, "confirm")
}

func (r *SQLiteRepository) UpdateNote(ctx context.Context, id int64, note string) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`UPDATE reservations SET note = ?, updated_at = ?
		 WHERE id = ?
		 RETURNING `+reservationColumns,
		note, time.Now().UTC().UnixMicro(), id,
	)
	return scanOne(row, "update")
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanOne(row, "get")
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	return nil
}

// sqlConditions collects the WHERE clause shared by Query and Filter. Status
// is always constrained.
type sqlConditions struct {
	clauses []string
	args    []any
}

func newSQLConditions(userID, resourceID string, status model.ReservationStatus) *sqlConditions {
	c := &sqlConditions{}
	c.add("status = ?", status.String())
	if userID != "" {
		c.add("user_id = ?", userID)
	}
	if resourceID != "" {
		c.add("resource_id = ?", resourceID)
	}
	return c
}

func (c *sqlConditions) add(clause string, arg any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, arg)
}

func (c *sqlConditions) where() string {
	return strings.Join(c.clauses, " AND ")
}

func orderDirection(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (r *SQLiteRepository) Query(ctx context.Context, p QueryParams) ([]*model.Reservation, error) {
	conds := newSQLConditions(p.UserID, p.ResourceID, p.Status)
	if p.Start != nil {
		conds.add("end_us > ?", p.Start.UTC().UnixMicro())
	}
	if p.End != nil {
		conds.add("start_us < ?", p.End.UTC().UnixMicro())
	}

	stmt := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + conds.where() +
		` ORDER BY id ` + orderDirection(p.Desc) + ` LIMIT ? OFFSET ?`
	return r.list(ctx, stmt, append(conds.args, sqlLimit(p.Limit), max(p.Offset, 0)))
}

func (r *SQLiteRepository) Filter(ctx context.Context, p FilterParams) ([]*model.Reservation, error) {
	conds := newSQLConditions(p.UserID, p.ResourceID, p.Status)
	if p.Cursor > 0 {
		if p.Desc {
			conds.add("id <= ?", p.Cursor)
		} else {
			conds.add("id >= ?", p.Cursor)
		}
	}

	stmt := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + conds.where() +
		` ORDER BY id ` + orderDirection(p.Desc) + ` LIMIT ?`
	return r.list(ctx, stmt, append(conds.args, sqlLimit(p.Limit)))
}

func (r *SQLiteRepository) list(ctx context.Context, stmt string, args []any) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close(context.Context) error {
	return r.db.Close()
}
