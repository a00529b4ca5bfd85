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

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "data/raw", cfg.Scan.DataRoot)
	assert.Equal(t, "docs/prd/dashboard_checks.yml", cfg.Scan.RulesPath)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 4, cfg.Scan.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Scan.MaxWait)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_ROOT", "/srv/raw")
	t.Setenv("SCAN_WORKERS", "8")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/raw", cfg.Scan.DataRoot)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("RAW_DATA_DIR", "legacy/raw")
	t.Setenv("PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy/raw", cfg.Scan.DataRoot)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_EmptyRulesPathDisablesChecks(t *testing.T) {
	t.Setenv("RULES_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Scan.RulesPath)
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SCAN_MAX_WAIT", "45s")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Scan.MaxWait)
	assert.Equal(t, time.Minute, cfg.Server.ShutdownTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"SERVER_PORT", "eighty"},
		{"SCAN_MAX_WAIT", "soon"},
		{"METRICS_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")
	t.Setenv("SCAN_WORKERS", "0")
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "SERVER_PORT (70000) must be 1-65535")
	assert.Contains(t, msg, "SCAN_WORKERS must be positive")
	assert.Contains(t, msg, "LOG_LEVEL")
}

func TestValidate_EmptyDataRoot(t *testing.T) {
	t.Setenv("DATA_ROOT", " ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_ROOT is required")
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv("SCAN_WORKERS", "-1")
	assert.Panics(t, func() { MustLoad() })
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 3000, ":3000"},
		{"::1", 80, "[::1]:80"},
	}
	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		assert.Equal(t, tt.want, c.Addr())
	}
}

func TestConfigString(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, `DataRoot: "data/raw"`)
	assert.Contains(t, s, `Addr: "0.0.0.0:8080"`)
}
