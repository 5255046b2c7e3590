package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  env: prod
`))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9991", cfg.App.HTTPAddr)
	assert.Equal(t, 50.0, cfg.Trading.RiskBudgetUSD)
	assert.Equal(t, "market", cfg.Trading.OrderType)
	assert.Equal(t, 1, cfg.Trading.PollIntervalSeconds)
	assert.Equal(t, 10.0, cfg.Trading.TPTolerancePoints)
	assert.Equal(t, 64, cfg.Trading.MaxMonitors)
	assert.Equal(t, "configs/policy.yaml", cfg.Trading.PolicyPath)
	assert.Equal(t, 15, cfg.Venue.TimeoutSeconds)
}

func TestLoad_ExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
venue:
  api_url: http://localhost:1234/api
  timeout_seconds: 3
trading:
  risk_budget_usd: 25
  order_type: limit
  tp_tolerance_points: 100
`))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:1234/api", cfg.Venue.APIURL)
	assert.Equal(t, 3, cfg.Venue.TimeoutSeconds)
	assert.Equal(t, 25.0, cfg.Trading.RiskBudgetUSD)
	assert.Equal(t, "limit", cfg.Trading.OrderType)
	assert.Equal(t, 100.0, cfg.Trading.TPTolerancePoints)
}

func TestLoad_Rejections(t *testing.T) {
	cases := map[string]string{
		"bad order type":    "trading:\n  order_type: stop\n",
		"zero poll":         "trading:\n  poll_interval_seconds: -1\n",
		"telegram no token": "notify:\n  telegram:\n    enabled: true\n",
		"empty venue url":   "venue:\n  api_url: \" \"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
