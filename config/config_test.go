package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("OUTPUT_FILE", "")
	t.Setenv("RANK_ENDPOINT", "")

	cfg := Load()
	require.Equal(t, 30, cfg.RequestTimeout)
	require.Equal(t, "data.json", cfg.OutputFile)
	require.Equal(t, DefaultRankEndpoint, cfg.RankEndpoint)
	require.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("USER_AGENT", "scraper-test/1.0")
	t.Setenv("OUTPUT_FILE", "out.json")

	cfg := Load()
	require.Equal(t, 5, cfg.RequestTimeout)
	require.Equal(t, "scraper-test/1.0", cfg.UserAgent)
	require.Equal(t, "out.json", cfg.OutputFile)
}

func TestGetEnvIntFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	require.Equal(t, 30, Load().RequestTimeout)

	cfg := &Config{RequestTimeout: 0}
	require.Equal(t, time.Second, cfg.Timeout())
}
