package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"eventattendance/internal/cache"
	"eventattendance/internal/config"
	"eventattendance/internal/model"
	"eventattendance/internal/repository"
)

// CreateEventInput carries the fields of a new event.  Validation of
// formats and required fields happens at the HTTP boundary before the
// core is invoked.
type CreateEventInput struct {
	Name        string
	Description string
	Date        time.Time
	Location    string
	Capacity    int
}

// UpdateEventInput is a partial update: nil fields are left untouched.
// A capacity change re-derives the free-spot counter from the current
// occupancy inside the transaction.
type UpdateEventInput struct {
	Name        *string
	Description *string
	Date        *time.Time
	Location    *string
	Capacity    *int
}

// EventStatistics summarises the seat accounting of one event.
type EventStatistics struct {
	EventID        string `json:"event_id"`
	EventName      string `json:"event_name"`
	Capacity       int    `json:"capacity"`
	AvailableSpots int    `json:"available_spots"`
	OccupiedSpots  int    `json:"occupied_spots"`
	Registered     int    `json:"registered"`
	Confirmed      int    `json:"confirmed"`
	Attended       int    `json:"attended"`
	Cancelled      int    `json:"cancelled"`
}

// EventService provides event CRUD with cache-aside reads.  Every read
// computes a deterministic key, tries the cache under a short timeout,
// and populates it on miss without blocking; every mutation writes to
// the store first and then deletes the keys that could hold a view of
// the mutated event.  Entries are never updated in place.
type EventService struct {
	tx          TxRunner
	events      EventStore
	attendances AttendanceStore
	cache       cache.Store
	log         *slog.Logger
	cacheCfg    config.CacheConfig
	opTimeout   time.Duration
}

// NewEventService wires an EventService.
func NewEventService(
	tx TxRunner,
	events EventStore,
	attendances AttendanceStore,
	cacheStore cache.Store,
	log *slog.Logger,
	cacheCfg config.CacheConfig,
	opTimeout time.Duration,
) *EventService {
	return &EventService{
		tx:          tx,
		events:      events,
		attendances: attendances,
		cache:       cacheStore,
		log:         log,
		cacheCfg:    cacheCfg,
		opTimeout:   opTimeout,
	}
}

// Create inserts a new event with all spots free and invalidates the
// listing caches.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	event := model.NewEvent(in.Name, in.Description, in.Location, in.Date, in.Capacity)
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	cacheInvalidate(s.cache, s.log, s.cacheCfg, cache.AllEventsKey, cache.AvailableEventsKey)
	return event, nil
}

// Get returns one event, cache-aside.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	key := cache.EventKey(id)
	var cached model.Event
	if cacheGet(ctx, s.cache, s.cacheCfg, key, &cached) {
		return &cached, nil
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, key, event, s.cacheCfg.EntityTTL)
	return event, nil
}

// List returns all events, cache-aside.
func (s *EventService) List(ctx context.Context) ([]model.Event, error) {
	var cached []model.Event
	if cacheGet(ctx, s.cache, s.cacheCfg, cache.AllEventsKey, &cached) {
		return cached, nil
	}
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, cache.AllEventsKey, events, s.cacheCfg.ListTTL)
	return events, nil
}

// ListAvailable returns the events with free spots, cache-aside with
// the shortest TTL since the listing changes on every registration.
func (s *EventService) ListAvailable(ctx context.Context) ([]model.Event, error) {
	var cached []model.Event
	if cacheGet(ctx, s.cache, s.cacheCfg, cache.AvailableEventsKey, &cached) {
		return cached, nil
	}
	events, err := s.events.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, cache.AvailableEventsKey, events, s.cacheCfg.AvailableTTL)
	return events, nil
}

// Update applies a partial update inside a transaction holding the
// event row lock, so a capacity edit cannot race a registration.  The
// free-spot counter is re-derived from the live occupancy count; a new
// capacity below the occupancy fails with ErrCapacityBelowOccupancy
// and leaves the event untouched.
func (s *EventService) Update(ctx context.Context, id string, in UpdateEventInput) (*model.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var updated *model.Event
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		event, err := s.events.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			event.Name = *in.Name
		}
		if in.Description != nil {
			event.Description = *in.Description
		}
		if in.Date != nil {
			event.Date = *in.Date
		}
		if in.Location != nil {
			event.Location = *in.Location
		}
		if in.Capacity != nil {
			occupied, err := s.attendances.CountActiveTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if *in.Capacity < occupied {
				return repository.ErrCapacityBelowOccupancy
			}
			event.Capacity = *in.Capacity
			event.AvailableSpots = *in.Capacity - occupied
		}
		if err := s.events.UpdateTx(ctx, tx, event); err != nil {
			return err
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	cacheInvalidate(s.cache, s.log, s.cacheCfg,
		cache.EventKey(id), cache.AllEventsKey, cache.AvailableEventsKey)
	return updated, nil
}

// Delete removes the event; attendance rows cascade at the schema
// level, so the attendance-list entry is invalidated as well.
func (s *EventService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	cacheInvalidate(s.cache, s.log, s.cacheCfg,
		cache.EventKey(id), cache.AllEventsKey, cache.AvailableEventsKey,
		cache.EventAttendancesKey(id))
	return nil
}

// Statistics reports the seat accounting of one event together with
// per-status attendance counts.
func (s *EventService) Statistics(ctx context.Context, id string) (*EventStatistics, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.attendances.StatusCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EventStatistics{
		EventID:        event.ID,
		EventName:      event.Name,
		Capacity:       event.Capacity,
		AvailableSpots: event.AvailableSpots,
		OccupiedSpots:  event.OccupiedSpots(),
		Registered:     counts[model.StatusRegistered],
		Confirmed:      counts[model.StatusConfirmed],
		Attended:       counts[model.StatusAttended],
		Cancelled:      counts[model.StatusCancelled],
	}, nil
}
