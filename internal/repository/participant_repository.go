package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"eventattendance/internal/model"
)

// mysqlDuplicateEntry is the server error number MySQL reports when an
// insert violates a unique key.
const mysqlDuplicateEntry = 1062

const participantColumns = `id, name, email, phone, created_at, updated_at`

// ParticipantRepo provides persistence for participants.  Participants
// are never mutated by the attendance flows, so no Tx variants are
// needed: reads inside a registration transaction see a stable row.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a ParticipantRepo bound to the given
// database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// Create inserts a new participant with a generated UUID.  A violation
// of the unique email key surfaces as ErrDuplicateEmail.
func (r *ParticipantRepo) Create(ctx context.Context, p *model.Participant) error {
	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	const q = `INSERT INTO participants (id, name, email, phone, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.Email, p.Phone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// GetByID returns a single participant or ErrParticipantNotFound.
func (r *ParticipantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	const q = `SELECT ` + participantColumns + ` FROM participants WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByEmail returns the participant with the given email or
// ErrParticipantNotFound.
func (r *ParticipantRepo) GetByEmail(ctx context.Context, email string) (*model.Participant, error) {
	const q = `SELECT ` + participantColumns + ` FROM participants WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, email))
}

// List returns all participants ordered by name.
func (r *ParticipantRepo) List(ctx context.Context) ([]model.Participant, error) {
	const q = `SELECT ` + participantColumns + ` FROM participants ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]model.Participant, 0)
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ParticipantRepo) scanOne(row *sql.Row) (*model.Participant, error) {
	var p model.Participant
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	return &p, nil
}
