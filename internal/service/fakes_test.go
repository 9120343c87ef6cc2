package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventattendance/internal/config"
	"eventattendance/internal/model"
	"eventattendance/internal/queue"
	"eventattendance/internal/repository"
)

// The fakes below back the stores with plain maps and emulate the
// database's concurrency contract: fakeTxRunner holds one mutex for the
// whole transaction, so concurrent transactions serialise exactly like
// writers contending on the event row lock, and a failed transaction
// restores the pre-transaction snapshot like a rollback.

type fakeState struct {
	// txMu serialises whole transactions; mapMu guards map access from
	// the plain (non-transactional) reads that run outside WithinTx.
	txMu  sync.Mutex
	mapMu sync.Mutex

	events       map[string]model.Event
	participants map[string]model.Participant
	attendances  map[string]model.Attendance
}

func newFakeState() *fakeState {
	return &fakeState{
		events:       make(map[string]model.Event),
		participants: make(map[string]model.Participant),
		attendances:  make(map[string]model.Attendance),
	}
}

func (st *fakeState) snapshot() (map[string]model.Event, map[string]model.Participant, map[string]model.Attendance) {
	ev := make(map[string]model.Event, len(st.events))
	for k, v := range st.events {
		ev[k] = v
	}
	pa := make(map[string]model.Participant, len(st.participants))
	for k, v := range st.participants {
		pa[k] = v
	}
	at := make(map[string]model.Attendance, len(st.attendances))
	for k, v := range st.attendances {
		at[k] = v
	}
	return ev, pa, at
}

type fakeTxRunner struct {
	st *fakeState
}

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.st.txMu.Lock()
	defer r.st.txMu.Unlock()

	r.st.mapMu.Lock()
	ev, pa, at := r.st.snapshot()
	r.st.mapMu.Unlock()

	if err := fn(nil); err != nil {
		r.st.mapMu.Lock()
		r.st.events, r.st.participants, r.st.attendances = ev, pa, at
		r.st.mapMu.Unlock()
		return err
	}
	return nil
}

type fakeEvents struct {
	st *fakeState
}

func (f *fakeEvents) Create(_ context.Context, e *model.Event) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	e.ID = uuid.New().String()
	e.AvailableSpots = e.Capacity
	f.st.events[e.ID] = *e
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	e, ok := f.st.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

func (f *fakeEvents) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id string) (*model.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEvents) List(_ context.Context) ([]model.Event, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	events := make([]model.Event, 0, len(f.st.events))
	for _, e := range f.st.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (f *fakeEvents) ListAvailable(ctx context.Context) ([]model.Event, error) {
	all, _ := f.List(ctx)
	events := make([]model.Event, 0, len(all))
	for _, e := range all {
		if e.AvailableSpots > 0 {
			events = append(events, e)
		}
	}
	return events, nil
}

func (f *fakeEvents) UpdateTx(_ context.Context, _ *sql.Tx, e *model.Event) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	if _, ok := f.st.events[e.ID]; !ok {
		return repository.ErrEventNotFound
	}
	f.st.events[e.ID] = *e
	return nil
}

func (f *fakeEvents) AdjustAvailableSpotsTx(_ context.Context, _ *sql.Tx, id string, delta int) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	e, ok := f.st.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	e.AvailableSpots += delta
	f.st.events[id] = e
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	if _, ok := f.st.events[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(f.st.events, id)
	for aid, a := range f.st.attendances {
		if a.EventID == id {
			delete(f.st.attendances, aid)
		}
	}
	return nil
}

type fakeParticipants struct {
	st *fakeState
}

func (f *fakeParticipants) Create(_ context.Context, p *model.Participant) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	for _, existing := range f.st.participants {
		if existing.Email == p.Email {
			return repository.ErrDuplicateEmail
		}
	}
	p.ID = uuid.New().String()
	f.st.participants[p.ID] = *p
	return nil
}

func (f *fakeParticipants) GetByID(_ context.Context, id string) (*model.Participant, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	p, ok := f.st.participants[id]
	if !ok {
		return nil, repository.ErrParticipantNotFound
	}
	return &p, nil
}

func (f *fakeParticipants) List(_ context.Context) ([]model.Participant, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	participants := make([]model.Participant, 0, len(f.st.participants))
	for _, p := range f.st.participants {
		participants = append(participants, p)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].Name < participants[j].Name })
	return participants, nil
}

type fakeAttendances struct {
	st *fakeState
}

func (f *fakeAttendances) GetByID(_ context.Context, id string) (*model.Attendance, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	a, ok := f.st.attendances[id]
	if !ok {
		return nil, repository.ErrAttendanceNotFound
	}
	return &a, nil
}

func (f *fakeAttendances) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id string) (*model.Attendance, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeAttendances) FindByEventAndParticipantTx(_ context.Context, _ *sql.Tx, eventID, participantID string) (*model.Attendance, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	for _, a := range f.st.attendances {
		if a.EventID == eventID && a.ParticipantID == participantID {
			return &a, nil
		}
	}
	return nil, repository.ErrAttendanceNotFound
}

func (f *fakeAttendances) InsertTx(_ context.Context, _ *sql.Tx, a *model.Attendance) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	a.ID = uuid.New().String()
	f.st.attendances[a.ID] = *a
	return nil
}

func (f *fakeAttendances) UpdateStatusTx(_ context.Context, _ *sql.Tx, id string, status model.AttendanceStatus, registrationDate *time.Time) error {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	a, ok := f.st.attendances[id]
	if !ok {
		return repository.ErrAttendanceNotFound
	}
	a.Status = status
	if registrationDate != nil {
		a.RegistrationDate = *registrationDate
	}
	f.st.attendances[id] = a
	return nil
}

func (f *fakeAttendances) ListByEvent(_ context.Context, eventID string) ([]model.Attendance, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	attendances := make([]model.Attendance, 0)
	for _, a := range f.st.attendances {
		if a.EventID == eventID {
			attendances = append(attendances, a)
		}
	}
	sort.Slice(attendances, func(i, j int) bool {
		return attendances[i].RegistrationDate.Before(attendances[j].RegistrationDate)
	})
	return attendances, nil
}

func (f *fakeAttendances) ListByParticipant(_ context.Context, participantID string) ([]model.Attendance, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	attendances := make([]model.Attendance, 0)
	for _, a := range f.st.attendances {
		if a.ParticipantID == participantID {
			attendances = append(attendances, a)
		}
	}
	sort.Slice(attendances, func(i, j int) bool {
		return attendances[i].RegistrationDate.After(attendances[j].RegistrationDate)
	})
	return attendances, nil
}

func (f *fakeAttendances) CountActiveTx(_ context.Context, _ *sql.Tx, eventID string) (int, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	n := 0
	for _, a := range f.st.attendances {
		if a.EventID == eventID && a.Status != model.StatusCancelled {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttendances) StatusCounts(_ context.Context, eventID string) (map[model.AttendanceStatus]int, error) {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	counts := make(map[model.AttendanceStatus]int)
	for _, a := range f.st.attendances {
		if a.EventID == eventID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.AttendanceEvent
}

func (p *fakePublisher) Publish(_ context.Context, event queue.AttendanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []queue.AttendanceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.AttendanceEvent, len(p.events))
	copy(out, p.events)
	return out
}

// failingStore errors on every operation, standing in for an
// unreachable cache backend.
type failingStore struct{}

var errCacheDown = errors.New("cache backend unreachable")

func (failingStore) Set(context.Context, string, any, time.Duration) error { return errCacheDown }
func (failingStore) Get(context.Context, string, any) (bool, error)       { return false, errCacheDown }
func (failingStore) Delete(context.Context, string) (bool, error)         { return false, errCacheDown }
func (failingStore) Exists(context.Context, string) (bool, error)         { return false, errCacheDown }
func (failingStore) Clear(context.Context) error                          { return errCacheDown }
func (failingStore) Keys(context.Context, string) ([]string, error)       { return nil, errCacheDown }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Backend:      "memory",
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: time.Second,
		EntityTTL:    time.Minute,
		ListTTL:      time.Minute,
		AvailableTTL: time.Minute,
	}
}
