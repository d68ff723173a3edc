package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AdamBeresnev/cupmaker/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_PATH", "SERVER_PORT", "SESSION_LIFETIME", "FRONTEND_URL", "NATS_URL", "RULES_FILE"} {
		t.Setenv(key, "")
	}
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cupmaker.db", cfg.DatabasePath)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, bracket.DefaultRules(), cfg.Rules)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/tmp/cup.db")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SESSION_LIFETIME", "2h30m")
	t.Setenv("FRONTEND_URL", "https://cup.example.com")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("RULES_FILE", writeRules(t, "min_players: 6\ngroup_size: 3\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cup.db", cfg.DatabasePath)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 150*time.Minute, cfg.SessionLifetime)
	assert.Equal(t, "https://cup.example.com", cfg.FrontendURL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, bracket.Rules{MinPlayers: 6, GroupSize: 3}, cfg.Rules)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port not a number", key: "SERVER_PORT", value: "http"},
		{name: "port out of range", key: "SERVER_PORT", value: "70000"},
		{name: "port zero", key: "SERVER_PORT", value: "0"},
		{name: "bad lifetime", key: "SESSION_LIFETIME", value: "forever"},
		{name: "negative lifetime", key: "SESSION_LIFETIME", value: "-1h"},
		{name: "missing rules file", key: "RULES_FILE", value: "/does/not/exist.yaml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(writeRules(t, "group_size: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, rules.MinPlayers)
	assert.Equal(t, 5, rules.GroupSize)

	_, err = LoadRules(writeRules(t, "group_size: 1\n"))
	assert.Error(t, err)

	_, err = LoadRules(writeRules(t, "min_players: [oops\n"))
	assert.Error(t, err)
}
