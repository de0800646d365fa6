package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Storage.UsesPostgres())
	assert.Equal(t, 5*time.Minute, cfg.AutosaveInterval())
	assert.Equal(t, 12*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "T1", cfg.DefaultStore)
	assert.Equal(t, 20, cfg.Storage.Retain)

	policy, err := cfg.LockPolicy()
	require.NoError(t, err)
	assert.Equal(t, "never", policy.String())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://pos@localhost/pos")
	t.Setenv("AUTOSAVE_INTERVAL", "30s")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("ORDER_LOCK", "paid")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Storage.UsesPostgres())
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval())
	assert.Equal(t, time.Hour, cfg.JWT.TTL)

	policy, err := cfg.LockPolicy()
	require.NoError(t, err)
	assert.Equal(t, "paid", policy.String())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port", env: map[string]string{"HTTP_PORT": "70000"}},
		{name: "ttl", env: map[string]string{"JWT_TTL": "0s"}},
		{name: "lock rule", env: map[string]string{"ORDER_LOCK": "grand_total +"}},
		{name: "production secret", env: map[string]string{"APP_ENV": "production"}},
		{name: "no storage", env: map[string]string{"SNAPSHOT_PATH": " "}},
		{name: "retain", env: map[string]string{"SNAPSHOT_RETAIN": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
