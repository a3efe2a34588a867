package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// ProposalStore keeps schedule proposals between the schedule and commit calls.
// Get returns appErrors.ErrProposalExpired for unknown or expired ids.
type ProposalStore interface {
	Save(ctx context.Context, proposal models.ScheduleProposal) error
	Get(ctx context.Context, id string) (*models.ScheduleProposal, error)
	Delete(ctx context.Context, id string) error
}

// MemoryProposalStore is a process-local TTL map.
type MemoryProposalStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.ScheduleProposal
}

// NewMemoryProposalStore builds an in-memory store. A non-positive ttl falls back to 30 minutes.
func NewMemoryProposalStore(ttl time.Duration) *MemoryProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryProposalStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]models.ScheduleProposal),
	}
}

// Save stores the proposal, stamping its expiry when unset.
func (s *MemoryProposalStore) Save(_ context.Context, proposal models.ScheduleProposal) error {
	if proposal.ExpiresAt.IsZero() {
		proposal.ExpiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.items[proposal.ID] = proposal
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored proposal.
func (s *MemoryProposalStore) Get(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrProposalExpired
	}
	if proposal.Expired(s.now()) {
		_ = s.Delete(ctx, id)
		return nil, appErrors.ErrProposalExpired
	}
	return &proposal, nil
}

// Delete removes a proposal if present.
func (s *MemoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

type proposalCache interface {
	Get(ctx context.Context, id string) (*models.ScheduleProposal, error)
	Set(ctx context.Context, proposal *models.ScheduleProposal, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// RedisProposalStore keeps proposals in Redis so any replica can commit them.
type RedisProposalStore struct {
	cache   proposalCache
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRedisProposalStore wraps the proposal cache repository.
func NewRedisProposalStore(cache proposalCache, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *RedisProposalStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisProposalStore{cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

// Save writes the proposal with the store TTL.
func (s *RedisProposalStore) Save(ctx context.Context, proposal models.ScheduleProposal) error {
	if proposal.ExpiresAt.IsZero() {
		proposal.ExpiresAt = time.Now().UTC().Add(s.ttl)
	}
	start := time.Now()
	err := s.cache.Set(ctx, &proposal, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("proposal cache set failed", zap.String("proposal_id", proposal.ID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule proposal")
	}
	return nil
}

// Get loads a proposal; a cache miss maps to ErrProposalExpired.
func (s *RedisProposalStore) Get(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	start := time.Now()
	proposal, err := s.cache.Get(ctx, id)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.ErrProposalExpired
		}
		s.logger.Warn("proposal cache get failed", zap.String("proposal_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule proposal")
	}
	s.metrics.RecordCacheOperation(true, duration)
	if proposal.Expired(time.Now()) {
		_ = s.Delete(ctx, id)
		return nil, appErrors.ErrProposalExpired
	}
	return proposal, nil
}

// Delete removes a proposal.
func (s *RedisProposalStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("proposal cache delete failed", zap.String("proposal_id", id), zap.Error(err))
		return err
	}
	return nil
}
