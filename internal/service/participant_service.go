package service

import (
	"context"
	"log/slog"
	"time"

	"eventattendance/internal/cache"
	"eventattendance/internal/config"
	"eventattendance/internal/model"
)

// CreateParticipantInput carries the fields of a new participant.
// Email and phone formats are validated at the HTTP boundary; the
// unique email key is enforced by the store.
type CreateParticipantInput struct {
	Name  string
	Email string
	Phone string
}

// ParticipantService provides participant creation and cache-aside
// reads, following the same pattern as EventService.
type ParticipantService struct {
	participants ParticipantStore
	cache        cache.Store
	log          *slog.Logger
	cacheCfg     config.CacheConfig
	opTimeout    time.Duration
}

// NewParticipantService wires a ParticipantService.
func NewParticipantService(
	participants ParticipantStore,
	cacheStore cache.Store,
	log *slog.Logger,
	cacheCfg config.CacheConfig,
	opTimeout time.Duration,
) *ParticipantService {
	return &ParticipantService{
		participants: participants,
		cache:        cacheStore,
		log:          log,
		cacheCfg:     cacheCfg,
		opTimeout:    opTimeout,
	}
}

// Create inserts a new participant.  A duplicate email surfaces as
// repository.ErrDuplicateEmail.
func (s *ParticipantService) Create(ctx context.Context, in CreateParticipantInput) (*model.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	participant := model.NewParticipant(in.Name, in.Email, in.Phone)
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, err
	}
	cacheInvalidate(s.cache, s.log, s.cacheCfg, cache.AllParticipantsKey)
	return participant, nil
}

// Get returns one participant, cache-aside.
func (s *ParticipantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	key := cache.ParticipantKey(id)
	var cached model.Participant
	if cacheGet(ctx, s.cache, s.cacheCfg, key, &cached) {
		return &cached, nil
	}
	participant, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, key, participant, s.cacheCfg.EntityTTL)
	return participant, nil
}

// List returns all participants, cache-aside.
func (s *ParticipantService) List(ctx context.Context) ([]model.Participant, error) {
	var cached []model.Participant
	if cacheGet(ctx, s.cache, s.cacheCfg, cache.AllParticipantsKey, &cached) {
		return cached, nil
	}
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	cacheSetAsync(s.cache, s.log, s.cacheCfg, cache.AllParticipantsKey, participants, s.cacheCfg.ListTTL)
	return participants, nil
}
