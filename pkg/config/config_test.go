package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Minute, cfg.Timetable.ProposalTTL)
	assert.Equal(t, 50, cfg.Timetable.ResolverMaxIter)
	assert.Equal(t, 500, cfg.Timetable.MaxWorkItems)
	assert.Equal(t, "balanced", cfg.Timetable.DefaultStrategy)
	assert.Equal(t, 2, cfg.Timetable.Constraints.MaxPhysicalPerDay)
	assert.Equal(t, 2, cfg.Timetable.Constraints.MaxOnlinePerDay)
	assert.Equal(t, 8.0, cfg.Timetable.Constraints.MaxHoursPerDay)
	assert.Equal(t, 15, cfg.Timetable.Constraints.MinimumRestMinutes)
	assert.False(t, cfg.Timetable.PersistenceEnabled)
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("TIMETABLE_PROPOSAL_TTL", "5m")
	t.Setenv("TIMETABLE_MAX_PHYSICAL_PER_DAY", "3")
	t.Setenv("TIMETABLE_ALLOW_BACK_TO_BACK", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, 5*time.Minute, cfg.Timetable.ProposalTTL)
	assert.Equal(t, 3, cfg.Timetable.Constraints.MaxPhysicalPerDay)
	assert.True(t, cfg.Timetable.Constraints.AllowBackToBack)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallsBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
