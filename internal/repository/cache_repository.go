package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

const proposalKeyPrefix = "timetable:proposal:"

// ProposalCacheRepository keeps schedule proposals in Redis until they are committed or expire.
type ProposalCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewProposalCacheRepository constructs a proposal cache repository.
func NewProposalCacheRepository(client *redis.Client, logger *zap.Logger) *ProposalCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalCacheRepository{client: client, logger: logger}
}

func proposalKey(id string) string {
	return proposalKeyPrefix + id
}

// Get loads a proposal. A missing key yields appErrors.ErrCacheMiss.
func (r *ProposalCacheRepository) Get(ctx context.Context, id string) (*models.ScheduleProposal, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := proposalKey(id)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var proposal models.ScheduleProposal
	if err := json.Unmarshal(raw, &proposal); err != nil {
		return nil, fmt.Errorf("unmarshal proposal %s: %w", key, err)
	}
	return &proposal, nil
}

// Set stores the proposal with the given TTL.
func (r *ProposalCacheRepository) Set(ctx context.Context, proposal *models.ScheduleProposal, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := proposalKey(proposal.ID)
	payload, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("marshal proposal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.logger.Debug("proposal cached", zap.String("proposal_id", proposal.ID), zap.Duration("ttl", ttl))
	return nil
}

// Delete removes a proposal if present.
func (r *ProposalCacheRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, proposalKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", proposalKey(id), err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *ProposalCacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
