package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "PASS_THRESHOLD", "UNLOCK_THRESHOLD", "UNLOCK_MIN_QUESTIONS", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 60.0, c.PassThreshold)
	assert.Equal(t, 60.0, c.UnlockThreshold)
	assert.Equal(t, 1, c.UnlockMinQuestions)
	assert.True(t, c.TrustClaimedRole)
	assert.Equal(t, c.CORSOriginsOffline, c.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("PASS_THRESHOLD", "75")
	t.Setenv("UNLOCK_THRESHOLD", "150") // out of range, ignored
	t.Setenv("UNLOCK_MIN_QUESTIONS", "5")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.Equal(t, 75.0, c.PassThreshold)
	assert.Equal(t, 60.0, c.UnlockThreshold)
	assert.Equal(t, 5, c.UnlockMinQuestions)
	assert.False(t, c.TrustClaimedRole)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_TEST_ADDR=:9999\nHTTP_ADDR=:7777\n"), 0o644))
	t.Setenv("HTTP_ADDR", ":1234")
	t.Setenv("PORTAL_TEST_ADDR", "")
	os.Unsetenv("PORTAL_TEST_ADDR")

	c := Load(path)
	assert.Equal(t, ":1234", c.HTTPAddr, "real env wins over .env")
	assert.Equal(t, ":9999", os.Getenv("PORTAL_TEST_ADDR"))
	os.Unsetenv("PORTAL_TEST_ADDR")
}
