package timetable

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00":    0,
		"09:30":    570,
		"23:59":    1439,
		"13:45:00": 825,
		" 08:05 ":  485,
		"":         0,
		"9":        0,
		"24:00":    0,
		"12:60":    0,
		"ab:cd":    0,
		"1:2:3:4":  0,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, ToMinutes(input), input)
	}
}

func TestFormatMinutesClampsToDay(t *testing.T) {
	assert.Equal(t, "09:05", FormatMinutes(545))
	assert.Equal(t, "00:00", FormatMinutes(-30))
	assert.Equal(t, "23:59", FormatMinutes(2000))
}

func TestOverlapsIsHalfOpenAndSymmetric(t *testing.T) {
	assert.True(t, Overlaps("09:00", "11:00", "10:00", "12:00"))
	assert.False(t, Overlaps("09:00", "10:00", "10:00", "11:00"))
	assert.True(t, Overlaps("09:00", "12:00", "10:00", "11:00"))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := FormatMinutes(rng.Intn(1440)), FormatMinutes(rng.Intn(1440))
		c, d := FormatMinutes(rng.Intn(1440)), FormatMinutes(rng.Intn(1440))
		assert.Equal(t, Overlaps(a, b, c, d), Overlaps(c, d, a, b), "%s-%s vs %s-%s", a, b, c, d)
	}
}

func TestDeliveryModeFor(t *testing.T) {
	assert.Equal(t, models.TeachingModePhysical, DeliveryModeFor("08:00", "10:00"))
	assert.Equal(t, models.TeachingModePhysical, DeliveryModeFor("08:00", "11:30"))
	assert.Equal(t, models.TeachingModeOnline, DeliveryModeFor("08:00", "09:59"))
	assert.Equal(t, models.TeachingModeOnline, DeliveryModeFor("10:00", "08:00"))
}

func TestEffectiveModeHonoursExplicitModeOnlyWhenConfigured(t *testing.T) {
	s := models.Session{StartTime: "08:00", EndTime: "09:00", TeachingMode: models.TeachingModePhysical}
	assert.Equal(t, models.TeachingModeOnline, EffectiveMode(s, models.ConstraintConfig{}))
	assert.Equal(t, models.TeachingModePhysical, EffectiveMode(s, models.ConstraintConfig{HonorExplicitMode: true}))
}

func TestIsBackToBack(t *testing.T) {
	assert.True(t, IsBackToBack("10:00", "10:05", 15))
	assert.False(t, IsBackToBack("10:00", "10:15", 15))
	assert.True(t, IsBackToBack("10:00", "10:00", 15))
}

func TestDayHelpers(t *testing.T) {
	assert.Equal(t, "MONDAY", NormalizeDay(" monday "))
	assert.Equal(t, 3, DayIndex("Wednesday"))
	assert.Equal(t, 0, DayIndex("someday"))
	assert.Equal(t, "TUESDAY", NextDay("monday"))
	assert.Equal(t, "MONDAY", NextDay("SUNDAY"))
}
