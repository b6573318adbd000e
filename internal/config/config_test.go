package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local/api/")
	t.Setenv("BLUEPRINT_DB_HOST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://backend.local/api", cfg.BackendBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 5, cfg.Poll.MaxAttempts)
	assert.Equal(t, cfg.Poll, cfg.VNPayPoll)
	assert.Equal(t, cfg.Poll, cfg.ZaloPayPoll)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.DB.Enabled())
}

func TestLoadConfig_ProviderOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("ZALOPAY_POLL_INTERVAL", "5s")
	t.Setenv("ZALOPAY_POLL_MAX_ATTEMPTS", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.ZaloPayPoll.Interval)
	assert.Equal(t, 8, cfg.ZaloPayPoll.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.VNPayPoll.Interval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_MissingBackend(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")

	_, err := LoadConfig()
	assert.EqualError(t, err, "BACKEND_BASE_URL is required")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("PAYMENT_POLL_INTERVAL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_POLL_INTERVAL")
}

func TestLoadConfig_DatabaseNeedsCredentials(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("BLUEPRINT_DB_HOST", "localhost")
	t.Setenv("BLUEPRINT_DB_USERNAME", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	db := Database{
		Host: "db.internal", Port: "5432",
		Username: "app@prod", Password: "p@ss:w/rd?#",
		Database: "payments", Schema: "public",
	}

	u, err := url.Parse(db.URL())
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "app@prod", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss:w/rd?#", pw)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/payments", u.Path)
	assert.Equal(t, "public", u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
