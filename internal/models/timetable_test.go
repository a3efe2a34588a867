package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionJSONOmitsUnsetTimestamps(t *testing.T) {
	raw, err := json.Marshal(Session{ID: "s1", Day: "MONDAY", StartTime: "09:00", EndTime: "11:00"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "created_at")
	assert.NotContains(t, string(raw), "updated_at")

	stamped := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	raw, err = json.Marshal(Session{ID: "s1", CreatedAt: &stamped})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"created_at":"2024-03-04T08:00:00Z"`)
}

func TestSessionAudienceKeyPrefersGroup(t *testing.T) {
	assert.Equal(t, "g1", Session{ClassID: "c1", GroupID: "g1"}.AudienceKey())
	assert.Equal(t, "c1", Session{ClassID: "c1"}.AudienceKey())
}
