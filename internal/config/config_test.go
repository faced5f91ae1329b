package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ROTATION_TEST_INT", "42")
	t.Setenv("ROTATION_TEST_FLOAT", "80.5")
	t.Setenv("ROTATION_TEST_BAD", "abc")
	t.Setenv("ROTATION_TEST_TZ", "UTC")

	assert.Equal(t, int64(42), getEnvAsInt("ROTATION_TEST_INT", 1))
	assert.Equal(t, int64(1), getEnvAsInt("ROTATION_TEST_BAD", 1))
	assert.Equal(t, 80.5, getEnvAsFloat("ROTATION_TEST_FLOAT", 75))
	assert.Equal(t, 75.0, getEnvAsFloat("ROTATION_TEST_MISSING", 75))
	assert.Equal(t, "fallback", getEnv("ROTATION_TEST_MISSING", "fallback"))
	assert.Equal(t, "UTC", getEnvAsLocation("ROTATION_TEST_TZ", time.UTC).String())
	assert.Equal(t, time.UTC, getEnvAsLocation("ROTATION_TEST_BAD", time.UTC))
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, 75.0, rules.AttendanceThreshold)
	assert.Equal(t, 7, rules.DueSoonWindowDays)
	assert.Equal(t, 15, rules.LateGraceMinutes)
	assert.Equal(t, time.UTC, rules.Location)
}
