package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eventattendance/internal/cache"
	"eventattendance/internal/model"
	"eventattendance/internal/queue"
	"eventattendance/internal/repository"
)

type attendanceFixture struct {
	st    *fakeState
	cache cache.Store
	pub   *fakePublisher
	svc   *AttendanceService
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	st := newFakeState()
	mem := cache.NewMemory(0)
	t.Cleanup(mem.Close)
	pub := &fakePublisher{}
	svc := NewAttendanceService(
		&fakeTxRunner{st: st},
		&fakeEvents{st: st},
		&fakeParticipants{st: st},
		&fakeAttendances{st: st},
		mem,
		pub,
		testLogger(),
		testCacheConfig(),
		5*time.Second,
	)
	return &attendanceFixture{st: st, cache: mem, pub: pub, svc: svc}
}

func seedEvent(st *fakeState, capacity, available int) string {
	id := uuid.New().String()
	st.events[id] = model.Event{
		ID:             id,
		Name:           "GopherCon",
		Date:           time.Now().AddDate(0, 1, 0),
		Capacity:       capacity,
		AvailableSpots: available,
	}
	return id
}

func seedParticipant(st *fakeState, email string) string {
	id := uuid.New().String()
	st.participants[id] = model.Participant{ID: id, Name: "Ada", Email: email}
	return id
}

func seedAttendance(st *fakeState, eventID, participantID string, status model.AttendanceStatus) string {
	id := uuid.New().String()
	st.attendances[id] = model.Attendance{
		ID:               id,
		EventID:          eventID,
		ParticipantID:    participantID,
		Status:           status,
		RegistrationDate: time.Now().UTC(),
	}
	return id
}

func (f *attendanceFixture) availableSpots(t *testing.T, eventID string) int {
	t.Helper()
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	e, ok := f.st.events[eventID]
	require.True(t, ok)
	return e.AvailableSpots
}

func (f *attendanceFixture) attendanceCount(eventID string) int {
	f.st.mapMu.Lock()
	defer f.st.mapMu.Unlock()
	n := 0
	for _, a := range f.st.attendances {
		if a.EventID == eventID {
			n++
		}
	}
	return n
}

func TestRegisterSuccess(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)
	participantID := seedParticipant(f.st, "ada@example.com")

	a, err := f.svc.Register(context.Background(), eventID, participantID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRegistered, a.Status)
	require.Equal(t, eventID, a.EventID)
	require.Equal(t, participantID, a.ParticipantID)
	require.Equal(t, 9, f.availableSpots(t, eventID))

	require.Eventually(t, func() bool {
		events := f.pub.published()
		return len(events) == 1 && events[0].Action == queue.ActionRegistered
	}, time.Second, 10*time.Millisecond)
}

func TestRegisterEventNotFound(t *testing.T) {
	f := newAttendanceFixture(t)
	participantID := seedParticipant(f.st, "ada@example.com")

	_, err := f.svc.Register(context.Background(), uuid.New().String(), participantID)
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestRegisterParticipantNotFound(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)

	_, err := f.svc.Register(context.Background(), eventID, uuid.New().String())
	require.ErrorIs(t, err, repository.ErrParticipantNotFound)
	require.Equal(t, 10, f.availableSpots(t, eventID))
}

func TestRegisterCapacityExceeded(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 5, 0)
	participantID := seedParticipant(f.st, "ada@example.com")

	_, err := f.svc.Register(context.Background(), eventID, participantID)
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)
	require.Equal(t, 0, f.attendanceCount(eventID))
	require.Equal(t, 0, f.availableSpots(t, eventID))
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	seedAttendance(f.st, eventID, participantID, model.StatusRegistered)

	_, err := f.svc.Register(context.Background(), eventID, participantID)
	require.ErrorIs(t, err, repository.ErrAlreadyRegistered)
	require.Equal(t, 9, f.availableSpots(t, eventID))
	require.Equal(t, 1, f.attendanceCount(eventID))
}

func TestRegisterConfirmedCountsAsRegistered(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	seedAttendance(f.st, eventID, participantID, model.StatusConfirmed)

	_, err := f.svc.Register(context.Background(), eventID, participantID)
	require.ErrorIs(t, err, repository.ErrAlreadyRegistered)
}

func TestRegisterReactivatesCancelledRow(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusCancelled)

	a, err := f.svc.Register(context.Background(), eventID, participantID)
	require.NoError(t, err)
	require.Equal(t, attendanceID, a.ID, "cancelled row is reused, not duplicated")
	require.Equal(t, model.StatusRegistered, a.Status)
	require.Equal(t, 9, f.availableSpots(t, eventID))
	require.Equal(t, 1, f.attendanceCount(eventID))
}

func TestCancelSuccess(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusRegistered)

	a, err := f.svc.Cancel(context.Background(), attendanceID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, a.Status)
	require.Equal(t, 10, f.availableSpots(t, eventID))

	require.Eventually(t, func() bool {
		events := f.pub.published()
		return len(events) == 1 && events[0].Action == queue.ActionCancelled
	}, time.Second, 10*time.Millisecond)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusCancelled)

	_, err := f.svc.Cancel(context.Background(), attendanceID)
	require.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	require.Equal(t, 10, f.availableSpots(t, eventID), "a cancelled seat is never freed twice")
}

func TestCancelAttendedForbidden(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusAttended)

	_, err := f.svc.Cancel(context.Background(), attendanceID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	require.Equal(t, 9, f.availableSpots(t, eventID))
}

func TestCancelNotFound(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.Cancel(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, repository.ErrAttendanceNotFound)
}

func TestConfirmAndMarkAttended(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusRegistered)

	a, err := f.svc.Confirm(context.Background(), attendanceID)
	require.NoError(t, err)
	require.Equal(t, model.StatusConfirmed, a.Status)

	a, err = f.svc.MarkAttended(context.Background(), attendanceID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAttended, a.Status)

	// Seat accounting is untouched by status-only transitions.
	require.Equal(t, 9, f.availableSpots(t, eventID))
}

func TestConfirmCancelledForbidden(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)
	participantID := seedParticipant(f.st, "ada@example.com")
	attendanceID := seedAttendance(f.st, eventID, participantID, model.StatusCancelled)

	_, err := f.svc.Confirm(context.Background(), attendanceID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestRegisterLastSeatRace(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 1, 1)
	p1 := seedParticipant(f.st, "first@example.com")
	p2 := seedParticipant(f.st, "second@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pid := range []string{p1, p2} {
		wg.Add(1)
		go func(i int, pid string) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(context.Background(), eventID, pid)
		}(i, pid)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, repository.ErrCapacityExceeded)
			rejected++
		}
	}
	require.Equal(t, 1, succeeded, "exactly one registration wins the last seat")
	require.Equal(t, 1, rejected)
	require.Equal(t, 0, f.availableSpots(t, eventID))
	require.Equal(t, 1, f.attendanceCount(eventID))
}

func TestRegisterFillsToCapacityAndNoFurther(t *testing.T) {
	f := newAttendanceFixture(t)
	const capacity = 100
	eventID := seedEvent(f.st, capacity, capacity)

	participants := make([]string, capacity+1)
	for i := range participants {
		participants[i] = seedParticipant(f.st, fmt.Sprintf("p%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, capacity)
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(context.Background(), eventID, participants[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 0, f.availableSpots(t, eventID))

	// The house is full: one more registration is rejected.
	_, err := f.svc.Register(context.Background(), eventID, participants[capacity])
	require.ErrorIs(t, err, repository.ErrCapacityExceeded)

	// One cancellation frees exactly one seat.
	var attendanceID string
	f.st.mapMu.Lock()
	for id, a := range f.st.attendances {
		if a.ParticipantID == participants[0] {
			attendanceID = id
			break
		}
	}
	f.st.mapMu.Unlock()
	_, err = f.svc.Cancel(context.Background(), attendanceID)
	require.NoError(t, err)
	require.Equal(t, 1, f.availableSpots(t, eventID))

	_, err = f.svc.Register(context.Background(), eventID, participants[capacity])
	require.NoError(t, err)
	require.Equal(t, 0, f.availableSpots(t, eventID))
}

func TestRegisterSucceedsWithFailingCache(t *testing.T) {
	st := newFakeState()
	svc := NewAttendanceService(
		&fakeTxRunner{st: st},
		&fakeEvents{st: st},
		&fakeParticipants{st: st},
		&fakeAttendances{st: st},
		failingStore{},
		nil,
		testLogger(),
		testCacheConfig(),
		5*time.Second,
	)
	eventID := seedEvent(st, 10, 10)
	participantID := seedParticipant(st, "ada@example.com")

	a, err := svc.Register(context.Background(), eventID, participantID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRegistered, a.Status)
}

func TestListByEventPopulatesCache(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 9)
	participantID := seedParticipant(f.st, "ada@example.com")
	seedAttendance(f.st, eventID, participantID, model.StatusRegistered)

	attendances, err := f.svc.ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, attendances, 1)

	// Population runs off the request path.
	require.Eventually(t, func() bool {
		ok, err := f.cache.Exists(context.Background(), cache.EventAttendancesKey(eventID))
		return err == nil && ok
	}, time.Second, 10*time.Millisecond)
}

func TestListByEventUnknownEvent(t *testing.T) {
	f := newAttendanceFixture(t)

	_, err := f.svc.ListByEvent(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestListByParticipantServedFromCache(t *testing.T) {
	f := newAttendanceFixture(t)
	participantID := seedParticipant(f.st, "ada@example.com")

	seeded := []model.Attendance{{
		ID:            uuid.New().String(),
		EventID:       uuid.New().String(),
		ParticipantID: participantID,
		Status:        model.StatusRegistered,
	}}
	require.NoError(t, f.cache.Set(context.Background(), cache.ParticipantAttendancesKey(participantID), seeded, 0))

	attendances, err := f.svc.ListByParticipant(context.Background(), participantID)
	require.NoError(t, err)
	require.Len(t, attendances, 1)
	require.Equal(t, seeded[0].ID, attendances[0].ID)
}

func TestRegisterInvalidatesEventCaches(t *testing.T) {
	f := newAttendanceFixture(t)
	eventID := seedEvent(f.st, 10, 10)
	participantID := seedParticipant(f.st, "ada@example.com")

	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, cache.EventKey(eventID), 1, 0))
	require.NoError(t, f.cache.Set(ctx, cache.AllEventsKey, 1, 0))
	require.NoError(t, f.cache.Set(ctx, cache.AvailableEventsKey, 1, 0))
	require.NoError(t, f.cache.Set(ctx, cache.EventAttendancesKey(eventID), 1, 0))
	require.NoError(t, f.cache.Set(ctx, cache.ParticipantAttendancesKey(participantID), 1, 0))

	_, err := f.svc.Register(ctx, eventID, participantID)
	require.NoError(t, err)

	for _, key := range []string{
		cache.EventKey(eventID),
		cache.AllEventsKey,
		cache.AvailableEventsKey,
		cache.EventAttendancesKey(eventID),
		cache.ParticipantAttendancesKey(participantID),
	} {
		ok, err := f.cache.Exists(ctx, key)
		require.NoError(t, err)
		require.False(t, ok, "stale entry %s must be invalidated", key)
	}
}
