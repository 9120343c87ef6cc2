package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventattendance/internal/cache"
	"eventattendance/internal/config"
	"eventattendance/internal/model"
	"eventattendance/internal/queue"
	"eventattendance/internal/repository"
)

// AttendanceService implements the seat-accounting protocol.  The
// event row lock taken inside each transaction is the single
// serialization point: every read made before it may be stale, but the
// capacity decision is always taken on the freshly locked row, so the
// number of active attendances can never exceed the event capacity
// regardless of how many registrations race.
type AttendanceService struct {
	tx           TxRunner
	events       EventStore
	participants ParticipantStore
	attendances  AttendanceStore
	cache        cache.Store
	pub          Publisher
	log          *slog.Logger
	cacheCfg     config.CacheConfig
	opTimeout    time.Duration
}

// NewAttendanceService wires an AttendanceService.  pub may be nil to
// disable broker publishing; everything else must be non-nil.
func NewAttendanceService(
	tx TxRunner,
	events EventStore,
	participants ParticipantStore,
	attendances AttendanceStore,
	cacheStore cache.Store,
	pub Publisher,
	log *slog.Logger,
	cacheCfg config.CacheConfig,
	opTimeout time.Duration,
) *AttendanceService {
	return &AttendanceService{
		tx:           tx,
		events:       events,
		participants: participants,
		attendances:  attendances,
		cache:        cacheStore,
		pub:          pub,
		log:          log,
		cacheCfg:     cacheCfg,
		opTimeout:    opTimeout,
	}
}

// Register books one seat on the event for the participant.
//
// The flow runs inside a single transaction: lock the event row, check
// the participant exists, re-check capacity on the locked row, create
// or reactivate the attendance row, decrement the spot counter,
// commit.  The capacity check deliberately happens after the lock is
// acquired; two registrations racing for the last seat serialise on
// the row lock and the second one observes zero spots.  Cache
// invalidation and broker publishing happen only after commit and
// cannot fail the registration.
func (s *AttendanceService) Register(ctx context.Context, eventID, participantID string) (*model.Attendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var (
		attendance *model.Attendance
		event      *model.Event
	)
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.events.GetForUpdateTx(ctx, tx, eventID)
		if err != nil {
			return err
		}
		// Participants are never mutated by this flow, so a plain read
		// is enough.
		if _, err := s.participants.GetByID(ctx, participantID); err != nil {
			return err
		}
		if !ev.HasAvailableSpots() {
			return repository.ErrCapacityExceeded
		}

		existing, err := s.attendances.FindByEventAndParticipantTx(ctx, tx, eventID, participantID)
		switch {
		case err == nil && existing.Active():
			return repository.ErrAlreadyRegistered
		case err == nil:
			// Cancelled row: reuse it instead of inserting a duplicate.
			now := time.Now().UTC()
			if err := existing.Transition(model.StatusRegistered); err != nil {
				return err
			}
			existing.RegistrationDate = now
			if err := s.attendances.UpdateStatusTx(ctx, tx, existing.ID, model.StatusRegistered, &now); err != nil {
				return err
			}
			attendance = existing
		case errors.Is(err, repository.ErrAttendanceNotFound):
			a := model.NewAttendance(eventID, participantID)
			if err := s.attendances.InsertTx(ctx, tx, a); err != nil {
				return err
			}
			attendance = a
		default:
			return err
		}

		if err := s.events.AdjustAvailableSpotsTx(ctx, tx, eventID, -1); err != nil {
			return err
		}
		ev.AvailableSpots--
		event = ev
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register attendance: %w", err)
	}

	s.invalidateAttendanceKeys(eventID, participantID)
	s.publishAsync(queue.ActionRegistered, attendance, event)
	return attendance, nil
}

// Cancel frees the seat held by the attendance.  Cancelling an already
// cancelled attendance fails with ErrAlreadyCancelled, cancelling an
// attended one with ErrInvalidTransition.  The increment is safe
// because the status is re-checked under lock: a seat is only freed if
// it was consumed by exactly one active registration.
func (s *AttendanceService) Cancel(ctx context.Context, attendanceID string) (*model.Attendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// Plain read first so the transaction can lock the event row before
	// the attendance row, matching the registration flow's lock order.
	loaded, err := s.attendances.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, fmt.Errorf("cancel attendance: %w", err)
	}

	var (
		attendance *model.Attendance
		event      *model.Event
	)
	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.events.GetForUpdateTx(ctx, tx, loaded.EventID)
		if err != nil {
			return err
		}
		a, err := s.attendances.GetForUpdateTx(ctx, tx, attendanceID)
		if err != nil {
			return err
		}
		if a.Status == model.StatusCancelled {
			return repository.ErrAlreadyCancelled
		}
		if err := a.Transition(model.StatusCancelled); err != nil {
			return err
		}
		if err := s.attendances.UpdateStatusTx(ctx, tx, a.ID, model.StatusCancelled, nil); err != nil {
			return err
		}
		if err := s.events.AdjustAvailableSpotsTx(ctx, tx, a.EventID, +1); err != nil {
			return err
		}
		ev.AvailableSpots++
		attendance = a
		event = ev
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel attendance: %w", err)
	}

	s.invalidateAttendanceKeys(attendance.EventID, attendance.ParticipantID)
	s.publishAsync(queue.ActionCancelled, attendance, event)
	return attendance, nil
}

// Confirm moves a registered attendance to confirmed.  No seat count
// changes, so only the attendance-list cache entries are invalidated.
func (s *AttendanceService) Confirm(ctx context.Context, attendanceID string) (*model.Attendance, error) {
	return s.transition(ctx, attendanceID, model.StatusConfirmed)
}

// MarkAttended records that the participant actually attended.
// Forbidden from cancelled.
func (s *AttendanceService) MarkAttended(ctx context.Context, attendanceID string) (*model.Attendance, error) {
	return s.transition(ctx, attendanceID, model.StatusAttended)
}

func (s *AttendanceService) transition(ctx context.Context, attendanceID string, to model.AttendanceStatus) (*model.Attendance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var attendance *model.Attendance
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		a, err := s.attendances.GetForUpdateTx(ctx, tx, attendanceID)
		if err != nil {
			return err
		}
		if err := a.Transition(to); err != nil {
			return err
		}
		if err := s.attendances.UpdateStatusTx(ctx, tx, a.ID, to, nil); err != nil {
			return err
		}
		attendance = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update attendance status: %w", err)
	}

	cacheInvalidate(s.cache, s.log, s.cacheCfg,
		cache.EventAttendancesKey(attendance.EventID),
		cache.ParticipantAttendancesKey(attendance.ParticipantID),
	)
	return attendance, nil
}

// ListByEvent returns the attendances of an event, cache-aside.
func (s *AttendanceService) ListByEvent(ctx context.Context, eventID string) ([]model.Attendance, error) {
	key := cache.EventAttendancesKey(eventID)
	var cached []model.Attendance
	if cacheGet(ctx, s.cache, s.cacheCfg, key, &cached) {
		return cached, nil
	}
	// The event must exist even when it has no attendances yet.
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	attendances, err := s.attendances.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, key, attendances, s.cacheCfg.ListTTL)
	return attendances, nil
}

// ListByParticipant returns the attendances of a participant,
// cache-aside.
func (s *AttendanceService) ListByParticipant(ctx context.Context, participantID string) ([]model.Attendance, error) {
	key := cache.ParticipantAttendancesKey(participantID)
	var cached []model.Attendance
	if cacheGet(ctx, s.cache, s.cacheCfg, key, &cached) {
		return cached, nil
	}
	if _, err := s.participants.GetByID(ctx, participantID); err != nil {
		return nil, err
	}
	attendances, err := s.attendances.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, key, attendances, s.cacheCfg.ListTTL)
	return attendances, nil
}

// invalidateAttendanceKeys drops every cache entry that may hold a
// view affected by a seat-count change: the event itself, both event
// listings, and the attendance listings of the event and participant.
func (s *AttendanceService) invalidateAttendanceKeys(eventID, participantID string) {
	cacheInvalidate(s.cache, s.log, s.cacheCfg,
		cache.EventKey(eventID),
		cache.AllEventsKey,
		cache.AvailableEventsKey,
		cache.EventAttendancesKey(eventID),
		cache.ParticipantAttendancesKey(participantID),
	)
}

// publishAsync sends the attendance event to the broker without
// blocking the caller; failures are logged inside the publisher and
// discarded here.
func (s *AttendanceService) publishAsync(action string, a *model.Attendance, ev *model.Event) {
	if s.pub == nil {
		return
	}
	msg := queue.AttendanceEvent{
		Action:         action,
		AttendanceID:   a.ID,
		EventID:        ev.ID,
		EventName:      ev.Name,
		ParticipantID:  a.ParticipantID,
		AvailableSpots: ev.AvailableSpots,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.pub.Publish(ctx, msg)
	}()
}
