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

const attendanceColumns = `id, event_id, participant_id, status, registration_date, created_at, updated_at`

// AttendanceRepo provides persistence for attendance records.  The
// seat-accounting flows run their reads and writes through the ...Tx
// variants inside the transaction that also holds the event row lock.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo returns an AttendanceRepo bound to the given
// database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// GetByID returns a single attendance or ErrAttendanceNotFound.
func (r *AttendanceRepo) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = ?`
	return scanAttendance(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx reads one attendance row within tx holding a row
// lock, so concurrent status changes on the same attendance serialise.
func (r *AttendanceRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = ? FOR UPDATE`
	return scanAttendance(tx.QueryRowContext(ctx, q, id))
}

// FindByEventAndParticipantTx returns the attendance row for the pair
// within tx, or ErrAttendanceNotFound.  At most one row can exist per
// pair (unique key), whatever its status.
func (r *AttendanceRepo) FindByEventAndParticipantTx(ctx context.Context, tx *sql.Tx, eventID, participantID string) (*model.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE event_id = ? AND participant_id = ?`
	return scanAttendance(tx.QueryRowContext(ctx, q, eventID, participantID))
}

// InsertTx inserts a new attendance row within tx, assigning it a
// generated UUID.
func (r *AttendanceRepo) InsertTx(ctx context.Context, tx *sql.Tx, a *model.Attendance) error {
	now := time.Now().UTC()
	a.ID = uuid.New().String()
	a.CreatedAt = now
	a.UpdatedAt = now
	const q = `INSERT INTO attendances (id, event_id, participant_id, status, registration_date, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		a.ID, a.EventID, a.ParticipantID, string(a.Status), a.RegistrationDate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// UpdateStatusTx persists a status change within tx.  When
// registrationDate is non-nil it is refreshed too (re-registration of
// a cancelled row).  Returns ErrAttendanceNotFound when no row
// matched.
func (r *AttendanceRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.AttendanceStatus, registrationDate *time.Time) error {
	var (
		res sql.Result
		err error
	)
	now := time.Now().UTC()
	if registrationDate != nil {
		const q = `UPDATE attendances SET status = ?, registration_date = ?, updated_at = ? WHERE id = ?`
		res, err = tx.ExecContext(ctx, q, string(status), *registrationDate, now, id)
	} else {
		const q = `UPDATE attendances SET status = ?, updated_at = ? WHERE id = ?`
		res, err = tx.ExecContext(ctx, q, string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("update attendance status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAttendanceNotFound
	}
	return nil
}

// ListByEvent returns all attendances of an event ordered by
// registration date ascending.
func (r *AttendanceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE event_id = ? ORDER BY registration_date ASC`
	return r.scanMany(ctx, q, eventID)
}

// ListByParticipant returns all attendances of a participant ordered
// by registration date descending (newest first).
func (r *AttendanceRepo) ListByParticipant(ctx context.Context, participantID string) ([]model.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE participant_id = ? ORDER BY registration_date DESC`
	return r.scanMany(ctx, q, participantID)
}

// CountActiveTx returns the number of non-cancelled attendances of the
// event within tx.  Capacity edits re-derive the free-spot counter
// from this occupancy count while holding the event row lock.
func (r *AttendanceRepo) CountActiveTx(ctx context.Context, tx *sql.Tx, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM attendances WHERE event_id = ? AND status <> ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, eventID, string(model.StatusCancelled)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active attendances: %w", err)
	}
	return n, nil
}

// StatusCounts returns the number of attendances of the event per
// status.  Statuses with no rows are absent from the map.
func (r *AttendanceRepo) StatusCounts(ctx context.Context, eventID string) (map[model.AttendanceStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM attendances WHERE event_id = ? GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("count attendances by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.AttendanceStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[model.AttendanceStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *AttendanceRepo) scanMany(ctx context.Context, query string, args ...any) ([]model.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]model.Attendance, 0)
	for rows.Next() {
		var (
			a      model.Attendance
			status string
		)
		if err := rows.Scan(&a.ID, &a.EventID, &a.ParticipantID, &status, &a.RegistrationDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		a.Status = model.AttendanceStatus(status)
		attendances = append(attendances, a)
	}
	return attendances, rows.Err()
}

func scanAttendance(row *sql.Row) (*model.Attendance, error) {
	var (
		a      model.Attendance
		status string
	)
	err := row.Scan(&a.ID, &a.EventID, &a.ParticipantID, &status, &a.RegistrationDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	a.Status = model.AttendanceStatus(status)
	return &a, nil
}
