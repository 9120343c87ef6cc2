// Package service implements the application core: the capacity-safe
// attendance registration protocol and the cache-aside read services
// for events and participants.  Services receive their collaborators
// explicitly at construction time; there is no ambient global state.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"eventattendance/internal/cache"
	"eventattendance/internal/config"
	"eventattendance/internal/model"
	"eventattendance/internal/queue"
)

// TxRunner runs a function inside a database transaction, rolling back
// on error.  Implemented by repository.TxManager.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// EventStore is the slice of the persistence gateway the services need
// for events.  Implemented by repository.EventRepo.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ListAvailable(ctx context.Context) ([]model.Event, error)
	UpdateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error
	AdjustAvailableSpotsTx(ctx context.Context, tx *sql.Tx, id string, delta int) error
	Delete(ctx context.Context, id string) error
}

// ParticipantStore is the slice of the persistence gateway the
// services need for participants.  Implemented by
// repository.ParticipantRepo.
type ParticipantStore interface {
	Create(ctx context.Context, p *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	List(ctx context.Context) ([]model.Participant, error)
}

// AttendanceStore is the slice of the persistence gateway the services
// need for attendance records.  Implemented by
// repository.AttendanceRepo.
type AttendanceStore interface {
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Attendance, error)
	FindByEventAndParticipantTx(ctx context.Context, tx *sql.Tx, eventID, participantID string) (*model.Attendance, error)
	InsertTx(ctx context.Context, tx *sql.Tx, a *model.Attendance) error
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.AttendanceStatus, registrationDate *time.Time) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error)
	ListByParticipant(ctx context.Context, participantID string) ([]model.Attendance, error)
	CountActiveTx(ctx context.Context, tx *sql.Tx, eventID string) (int, error)
	StatusCounts(ctx context.Context, eventID string) (map[model.AttendanceStatus]int, error)
}

// Publisher publishes attendance events to the message broker.
// Implemented by queue.Publisher; may be nil to disable publishing.
type Publisher interface {
	Publish(ctx context.Context, event queue.AttendanceEvent) error
}

// cacheGet attempts a cache read bounded by the configured timeout.
// Any error, including the timeout, counts as a miss: the cache is
// advisory and must never make a read fail or hang.
func cacheGet(ctx context.Context, c cache.Store, cfg config.CacheConfig, key string, dest any) bool {
	if c == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, cfg.ReadTimeout)
	defer cancel()
	ok, err := c.Get(cctx, key, dest)
	return err == nil && ok
}

// cacheSetAsync populates an entry without blocking the caller on the
// write's completion or failure.
func cacheSetAsync(c cache.Store, log *slog.Logger, cfg config.CacheConfig, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
		defer cancel()
		if err := c.Set(ctx, key, value, ttl); err != nil {
			log.Warn("cache set failed", "key", key, "error", err)
		}
	}()
}

// cacheInvalidate deletes every given key.  Failures are logged and
// discarded, never retried: at worst the entry stays stale until its
// TTL expires.
func cacheInvalidate(c cache.Store, log *slog.Logger, cfg config.CacheConfig, keys ...string) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	for _, key := range keys {
		if _, err := c.Delete(ctx, key); err != nil {
			log.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
}
