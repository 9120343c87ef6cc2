package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventattendance/internal/model"
)

// eventColumns is the column list shared by every event SELECT so scan
// order can never drift between queries.
const eventColumns = `id, name, description, date, location, capacity, available_spots, created_at, updated_at`

// EventRepo provides persistence for events.  Plain reads go through
// the pool directly; the ...Tx variants run inside a caller-owned
// transaction and exist for the seat-accounting flows that need the
// event row lock.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts a new event with all spots free and assigns it a
// generated UUID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	now := time.Now().UTC()
	e.ID = uuid.New().String()
	e.AvailableSpots = e.Capacity
	e.CreatedAt = now
	e.UpdatedAt = now
	const q = `INSERT INTO events (id, name, description, date, location, capacity, available_spots, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.Name, e.Description, e.Date, e.Location, e.Capacity, e.AvailableSpots, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads the event row within tx holding a row-level
// exclusive lock.  Concurrent registrations and cancellations against
// the same event serialise on this lock; it is released when the
// transaction commits or rolls back.  Events never contend with each
// other since the lock scope is exactly one row.
func (r *EventRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ? FOR UPDATE`
	return r.scanOne(tx.QueryRowContext(ctx, q, id))
}

// List returns all events ordered by date ascending.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY date ASC`
	return r.scanMany(ctx, q)
}

// ListAvailable returns the events that still have free spots, ordered
// by date ascending.
func (r *EventRepo) ListAvailable(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE available_spots > 0 ORDER BY date ASC`
	return r.scanMany(ctx, q)
}

// UpdateTx persists every mutable field of the event within tx.  The
// caller is expected to have loaded the row with GetForUpdateTx first
// so the write cannot race a concurrent registration.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	e.UpdatedAt = time.Now().UTC()
	const q = `UPDATE events
	           SET name = ?, description = ?, date = ?, location = ?, capacity = ?, available_spots = ?, updated_at = ?
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q,
		e.Name, e.Description, e.Date, e.Location, e.Capacity, e.AvailableSpots, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// AdjustAvailableSpotsTx applies available_spots += delta atomically
// within tx.  The schema-level check constraint keeping the counter in
// [0, capacity] is a last-resort guard; the primary enforcement is the
// capacity re-check the service performs on the locked row before
// calling this.
func (r *EventRepo) AdjustAvailableSpotsTx(ctx context.Context, tx *sql.Tx, id string, delta int) error {
	const q = `UPDATE events SET available_spots = available_spots + ?, updated_at = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, delta, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("adjust available spots: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Delete removes the event row.  Attendances cascade at the schema
// level.  Returns ErrEventNotFound when no row matched.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM events WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *EventRepo) scanOne(row *sql.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Location,
		&e.Capacity, &e.AvailableSpots, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

func (r *EventRepo) scanMany(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.Date, &e.Location,
			&e.Capacity, &e.AvailableSpots, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
