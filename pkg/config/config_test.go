package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Report.Interval.Std())
	assert.Equal(t, uint16(1), cfg.Oven.Endpoint)
}

func TestLoad_SampleFiles(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "appliance.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "kitchen", cfg.NodeID)
	assert.Len(t, cfg.Refrigerator.Modes, 3)
	assert.Equal(t, uint16(0x4001), cfg.Refrigerator.Modes[2].Tags[0])
	assert.Equal(t, 5*time.Second, cfg.Sensor.Interval.Std())

	cfg, err = Load(filepath.Join("..", "..", "configs", "appliance.toml"))
	require.NoError(t, err)
	assert.Equal(t, "garage-fridge", cfg.NodeID)
	assert.False(t, cfg.Oven.Enabled)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "home/matter", cfg.MQTT.TopicPrefix)
	assert.Equal(t, int16(50), cfg.Refrigerator.Temperature.Step)
	assert.Equal(t, []string{"Normal", "Vacation"}, []string{cfg.Refrigerator.Modes[0].Label, cfg.Refrigerator.Modes[1].Label})
}

func TestLoad_YAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "c.yml", "node_id: n1\nreport:\n  interval: 250ms\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "n1", cfg.NodeID)
	assert.Equal(t, 250*time.Millisecond, cfg.Report.Interval.Std())
	assert.Equal(t, Default().Oven, cfg.Oven)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"unknown extension", "c.json", "{}", ErrUnknownFormat},
		{"duplicate endpoint", "c.yaml", "oven:\n  endpoint: 2\n", ErrInvalid},
		{"light on sensor endpoint", "c.yaml", "oven:\n  light_endpoint: 3\n", ErrInvalid},
		{"bad log level", "c.toml", "[log]\nlevel = \"loud\"\n", ErrInvalid},
		{"step zero", "c.yaml", "oven:\n  temperature:\n    step: 0\n", ErrInvalid},
		{"empty phase label", "c.yaml", "oven:\n  phases: [Preheat, \"\", Bake]\n", ErrInvalid},
		{"empty level label", "c.toml", "[refrigerator.temperature]\nlevels = [\"cold\", \"\"]\n", ErrInvalid},
		{"too many phases", "c.yaml", "oven:\n  phases: [" + strings.Repeat("p, ", 32) + "p]\n", ErrInvalid},
		{"mqtt without broker", "c.toml", "[mqtt]\nenabled = true\nbroker = \"\"\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_UnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "c.yaml", "sensr:\n  enabled: false\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "c.toml", "[sensr]\nenabled = false\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "c.yaml", "report:\n  interval: soon\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logging.LogLevel{
		"":      logging.LogLevelInfo,
		"DEBUG": logging.LogLevelDebug,
		"warn":  logging.LogLevelWarn,
		"off":   logging.LogLevelDisabled,
		"trace": logging.LogLevelTrace,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	cfg := Default()
	cfg.Log.Level = "error"
	assert.Equal(t, logging.LogLevelError, cfg.LoggerFactory().DefaultLogLevel)
}
