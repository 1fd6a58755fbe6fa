package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.App.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "@every 1h", cfg.Scheduler.CleanupSchedule)
	assert.False(t, cfg.Database.IsPostgres())
	assert.False(t, cfg.App.TrustProxy)
}

func TestLoadRejectsDefaultSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", defaultSecretKey)

	_, err := Load()
	assert.ErrorContains(t, err, "SECRET_KEY")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "at least 32")
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("ALLOWED_HOSTS", "https://lumen.example,https://admin.lumen.example")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")
	t.Setenv("DATABASE_URL", "postgres://lumen:pw@db:5432/lumen?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://lumen.example", "https://admin.lumen.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL())
	assert.True(t, cfg.Database.IsPostgres())
}

func TestGetSQLitePath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"sqlite:///./lumenai.db", "./lumenai.db"},
		{"sqlite:////var/data/site.db", "/var/data/site.db"},
		{"plain.db", "plain.db"},
	}
	for _, tt := range tests {
		c := DatabaseConfig{URL: tt.url}
		assert.Equal(t, tt.want, c.GetSQLitePath(), tt.url)
	}
}
