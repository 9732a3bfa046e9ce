package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikodemGapski/storage-system/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
topology:
  devices:
    d1: 2
    d2: 1
  placement:
    c1: d1
    c2: d2
`

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workload.Workers)
	assert.Equal(t, 64, cfg.Workload.QueueSize)
	assert.Equal(t, 1000, cfg.Workload.Transfers)
	assert.Equal(t, 5, cfg.Workload.MoveWeight)
	assert.Equal(t, config.Duration(5*time.Millisecond), cfg.Workload.MaxCallbackLatency)
	assert.Equal(t, config.Duration(5*time.Second), cfg.Workload.StatsInterval)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_ParsesDurations(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, minimalConfig+`
workload:
  workers: 4
  transfers: 100
  min_callback_latency: 500us
  max_callback_latency: 20ms
  stats_interval: 2s
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workload.Workers)
	assert.Equal(t, config.Duration(500*time.Microsecond), cfg.Workload.MinCallbackLatency)
	assert.Equal(t, config.Duration(20*time.Millisecond), cfg.Workload.MaxCallbackLatency)
	assert.Equal(t, config.Duration(2*time.Second), cfg.Workload.StatsInterval)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := config.LoadConfig(writeConfig(t, "topology: ["))
	require.Error(t, err)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "no devices",
			content: `
topology:
  placement:
    c1: d1
`,
		},
		{
			name: "non-positive capacity",
			content: `
topology:
  devices:
    d1: 0
  placement:
    c1: d1
`,
		},
		{
			name: "empty placement",
			content: `
topology:
  devices:
    d1: 2
`,
		},
		{
			name: "placement on unknown device",
			content: `
topology:
  devices:
    d1: 2
  placement:
    c1: d9
`,
		},
		{
			name: "latency bounds inverted",
			content: minimalConfig + `
workload:
  min_callback_latency: 10ms
  max_callback_latency: 1ms
`,
		},
		{
			name: "invalid duration",
			content: minimalConfig + `
workload:
  stats_interval: soon
`,
		},
		{
			name: "metrics port out of range",
			content: minimalConfig + `
metrics:
  port: 70000
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
