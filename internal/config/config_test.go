package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/persiandate/pkg/persiandate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persiandate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
output:
  format: us
  zero_pad: false
  encoding: json
batch:
  progress: false
  fail_fast: true
daemon:
  daily_time: "06:30"
  output_file: /tmp/today.txt
  metrics_file: /tmp/persiandate.prom
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "us", cfg.Output.Format)
	assert.False(t, cfg.Output.ZeroPad)
	assert.Equal(t, "json", cfg.Output.Encoding)
	assert.False(t, cfg.Batch.Progress)
	assert.True(t, cfg.Batch.FailFast)
	assert.Equal(t, "/tmp/today.txt", cfg.Daemon.OutputFile)
	assert.Equal(t, "/tmp/persiandate.prom", cfg.Daemon.MetricsFile)
	assert.Equal(t, "debug", cfg.Log.Level)

	hour, minute := cfg.Daemon.GetDailyTime()
	assert.Equal(t, 6, hour)
	assert.Equal(t, 30, minute)

	d := persiandate.MustDate(2024, 3, 20)
	assert.Equal(t, "1/1/1403", persiandate.FromDate(d, cfg.Output.FormatOptions()...))
}

func TestLoadDefaultsFillMissingKeys(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Output, cfg.Output)
	assert.Equal(t, def.Batch, cfg.Batch)
	assert.Equal(t, def.Daemon, cfg.Daemon)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "output:\n  format: us\n")
	t.Setenv("PERSIANDATE_OUTPUT_FORMAT", "international")
	t.Setenv("PERSIANDATE_OUTPUT_ZERO_PAD", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "international", cfg.Output.Format)
	assert.False(t, cfg.Output.ZeroPad)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown format", "output:\n  format: european\n"},
		{"unknown encoding", "output:\n  encoding: xml\n"},
		{"bad daily time", "daemon:\n  daily_time: \"25:00\"\n"},
		{"empty output file", "daemon:\n  output_file: \"\"\n"},
		{"unknown log level", "log:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestGetDailyTimeFallback(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantHour   int
		wantMinute int
	}{
		{"empty", "", 0, 5},
		{"valid", "23:59", 23, 59},
		{"garbage", "noon", 0, 5},
		{"out of range", "24:10", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DaemonConfig{DailyTime: tt.value}
			h, m := c.GetDailyTime()
			assert.Equal(t, tt.wantHour, h)
			assert.Equal(t, tt.wantMinute, m)
		})
	}
}
