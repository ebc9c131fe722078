package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "predictions.csv", cfg.GetSource())
	assert.Equal(t, 50, cfg.GetLinePoints())
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "text", cfg.GetLogFormat())
	assert.Equal(t, "griddash", cfg.GetTopicPrefix())
	assert.Equal(t, "griddash", cfg.GetClientID())
	assert.Equal(t, time.Minute, cfg.GetSnapshotTimeout())

	w, h := cfg.GetSnapshotSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 900, h)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
source: https://example.com/predictions.csv
timezone: Europe/Paris
line_points: 100
fetch_timeout: 30s
http:
  addr: 127.0.0.1:9000
log:
  level: debug
  format: json
mqtt:
  enabled: true
  broker: localhost:1883
  topic_prefix: energy
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/predictions.csv", cfg.GetSource())
	assert.Equal(t, 100, cfg.GetLinePoints())
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetHTTPAddr())
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "energy", cfg.GetTopicPrefix())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "source: from-file.csv\nhttp:\n  addr: \":9000\"\n")

	t.Setenv("GRIDDASH_SOURCE", "from-env.csv")
	t.Setenv("GRIDDASH_HTTP_ADDR", ":7000")
	t.Setenv("GRIDDASH_LINE_POINTS", "25")
	t.Setenv("GRIDDASH_MQTT_TOPIC_PREFIX", "env-prefix")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.GetSource())
	assert.Equal(t, ":7000", cfg.GetHTTPAddr())
	assert.Equal(t, 25, cfg.GetLinePoints())
	assert.Equal(t, "env-prefix", cfg.GetTopicPrefix())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"negative line points", "line_points: -1\n"},
		{"mqtt without broker", "mqtt:\n  enabled: true\n"},
		{"unknown timezone", "timezone: Mars/Olympus\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validating config")
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "source: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{Source: "data.csv", LinePoints: 10}
	cfg.MQTT.Broker = "broker:1883"

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", loaded.Source)
	assert.Equal(t, 10, loaded.LinePoints)
	assert.Equal(t, "broker:1883", loaded.MQTT.Broker)
}
