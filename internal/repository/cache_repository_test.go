package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

func TestProposalCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewProposalCacheRepository(nil, nil)

	_, err := repo.Get(context.Background(), "p-1")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), &models.ScheduleProposal{ID: "p-1"}, time.Minute))
	assert.NoError(t, repo.Delete(context.Background(), "p-1"))
	assert.NoError(t, repo.Close())
}

func TestProposalCacheRepositorySurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	repo := NewProposalCacheRepository(client, nil)
	defer repo.Close() //nolint:errcheck

	_, err := repo.Get(context.Background(), "p-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Contains(t, err.Error(), proposalKeyPrefix+"p-1")
}
