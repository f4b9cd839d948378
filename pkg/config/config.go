// Package config loads the appliance device configuration from YAML or
// TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("config: unknown file format")

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as a Go duration string ("2s").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the device configuration.
type Config struct {
	// NodeID names the node in reports. Random when empty.
	NodeID string `yaml:"node_id" toml:"node_id"`

	Log          LogConfig          `yaml:"log" toml:"log"`
	Store        StoreConfig        `yaml:"store" toml:"store"`
	Report       ReportConfig       `yaml:"report" toml:"report"`
	MQTT         MQTTConfig         `yaml:"mqtt" toml:"mqtt"`
	Oven         OvenConfig         `yaml:"oven" toml:"oven"`
	Refrigerator RefrigeratorConfig `yaml:"refrigerator" toml:"refrigerator"`
	Sensor       SensorConfig       `yaml:"sensor" toml:"sensor"`
}

// LogConfig selects the log level: disabled, error, warn, info, debug or
// trace.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// StoreConfig locates the bbolt database. An empty path keeps state in
// memory.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// ReportConfig configures the change reporter.
type ReportConfig struct {
	Interval Duration `yaml:"interval" toml:"interval"`
}

// MQTTConfig configures the snapshot publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	QoS         byte   `yaml:"qos" toml:"qos"`
	Retained    bool   `yaml:"retained" toml:"retained"`
}

// TemperatureConfig configures a Temperature Control cluster. Values are
// in hundredths of a degree Celsius.
type TemperatureConfig struct {
	Min    int16    `yaml:"min" toml:"min"`
	Max    int16    `yaml:"max" toml:"max"`
	Step   int16    `yaml:"step" toml:"step"`
	Levels []string `yaml:"levels" toml:"levels"`
}

// OvenConfig describes the oven cavity endpoint.
type OvenConfig struct {
	Enabled  bool     `yaml:"enabled" toml:"enabled"`
	Endpoint uint16   `yaml:"endpoint" toml:"endpoint"`
	Phases   []string `yaml:"phases" toml:"phases"`
	// LightEndpoint hosts the cavity lamp as a child of the oven. 0 disables it.
	LightEndpoint uint16            `yaml:"light_endpoint" toml:"light_endpoint"`
	Temperature   TemperatureConfig `yaml:"temperature" toml:"temperature"`
}

// ModeConfig is one refrigerator mode.
type ModeConfig struct {
	Label string   `yaml:"label" toml:"label"`
	Mode  uint8    `yaml:"mode" toml:"mode"`
	Tags  []uint16 `yaml:"tags" toml:"tags"`
}

// RefrigeratorConfig describes the refrigerator cabinet endpoint.
type RefrigeratorConfig struct {
	Enabled     bool              `yaml:"enabled" toml:"enabled"`
	Endpoint    uint16            `yaml:"endpoint" toml:"endpoint"`
	Modes       []ModeConfig      `yaml:"modes" toml:"modes"`
	InitialMode uint8             `yaml:"initial_mode" toml:"initial_mode"`
	Temperature TemperatureConfig `yaml:"temperature" toml:"temperature"`
}

// SensorConfig describes the standalone temperature sensor endpoint.
type SensorConfig struct {
	Enabled  bool     `yaml:"enabled" toml:"enabled"`
	Endpoint uint16   `yaml:"endpoint" toml:"endpoint"`
	Min      int16    `yaml:"min" toml:"min"`
	Max      int16    `yaml:"max" toml:"max"`
	Simulate bool     `yaml:"simulate" toml:"simulate"`
	Interval Duration `yaml:"interval" toml:"interval"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Report: ReportConfig{Interval: Duration(time.Second)},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "matter",
			QoS:         1,
			Retained:    true,
		},
		Oven: OvenConfig{
			Enabled:       true,
			Endpoint:      1,
			Phases:        []string{"pre-heating", "baking", "cooling down"},
			LightEndpoint: 4,
			Temperature: TemperatureConfig{
				Min:  5000,
				Max:  27500,
				Step: 500,
			},
		},
		Refrigerator: RefrigeratorConfig{
			Enabled:  true,
			Endpoint: 2,
			Temperature: TemperatureConfig{
				Min:    -2400,
				Max:    800,
				Step:   100,
				Levels: []string{"cold", "colder", "coldest"},
			},
		},
		Sensor: SensorConfig{
			Enabled:  true,
			Endpoint: 3,
			Min:      -4000,
			Max:      12500,
			Simulate: true,
			Interval: Duration(5 * time.Second),
		},
	}
}

// Load reads path on top of Default. The format follows the extension:
// .yaml/.yml or .toml. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".toml":
		err = decodeTOML(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys %v", undecoded)
	}
	return nil
}

// Validate checks ranges and endpoint uniqueness.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Report.Interval.Std() <= 0 {
		return fmt.Errorf("%w: report.interval must be positive", ErrInvalid)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required", ErrInvalid)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos %d", ErrInvalid, c.MQTT.QoS)
	}

	endpoints := map[uint16]string{}
	claim := func(name string, enabled bool, ep uint16) error {
		if !enabled {
			return nil
		}
		if ep == 0 {
			return fmt.Errorf("%w: %s.endpoint 0 is the root endpoint", ErrInvalid, name)
		}
		if other, ok := endpoints[ep]; ok {
			return fmt.Errorf("%w: %s and %s share endpoint %d", ErrInvalid, name, other, ep)
		}
		endpoints[ep] = name
		return nil
	}
	if err := claim("oven", c.Oven.Enabled, c.Oven.Endpoint); err != nil {
		return err
	}
	if err := claim("oven.light", c.Oven.Enabled && c.Oven.LightEndpoint != 0, c.Oven.LightEndpoint); err != nil {
		return err
	}
	if err := claim("refrigerator", c.Refrigerator.Enabled, c.Refrigerator.Endpoint); err != nil {
		return err
	}
	if err := claim("sensor", c.Sensor.Enabled, c.Sensor.Endpoint); err != nil {
		return err
	}

	if c.Oven.Enabled {
		if err := checkLabels("oven.phases", c.Oven.Phases); err != nil {
			return err
		}
		if err := c.Oven.Temperature.validate("oven.temperature"); err != nil {
			return err
		}
	}
	if c.Refrigerator.Enabled {
		if err := c.Refrigerator.Temperature.validate("refrigerator.temperature"); err != nil {
			return err
		}
		seen := map[uint8]bool{}
		for _, m := range c.Refrigerator.Modes {
			if m.Label == "" || seen[m.Mode] {
				return fmt.Errorf("%w: refrigerator mode %d is unlabeled or duplicated", ErrInvalid, m.Mode)
			}
			seen[m.Mode] = true
		}
	}
	if c.Sensor.Enabled {
		if c.Sensor.Min > c.Sensor.Max {
			return fmt.Errorf("%w: sensor.min > sensor.max", ErrInvalid)
		}
		if c.Sensor.Simulate && c.Sensor.Interval.Std() <= 0 {
			return fmt.Errorf("%w: sensor.interval must be positive", ErrInvalid)
		}
	}
	return nil
}

func (t *TemperatureConfig) validate(name string) error {
	if t.Min > t.Max {
		return fmt.Errorf("%w: %s.min > %s.max", ErrInvalid, name, name)
	}
	if t.Step < 1 {
		return fmt.Errorf("%w: %s.step must be at least 1", ErrInvalid, name)
	}
	return checkLabels(name+".levels", t.Levels)
}

// checkLabels bounds a label table to 32 entries with no empty label.
func checkLabels(name string, labels []string) error {
	if len(labels) > 32 {
		return fmt.Errorf("%w: %s has %d entries, at most 32", ErrInvalid, name, len(labels))
	}
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: %s[%d] is empty", ErrInvalid, name, i)
		}
	}
	return nil
}

// ParseLogLevel maps a level name to a pion log level. Empty means info.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	default:
		return logging.LogLevelDisabled, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
}

// LoggerFactory builds a pion logger factory at the configured level.
func (c *Config) LoggerFactory() *logging.DefaultLoggerFactory {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		level = logging.LogLevelInfo
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	return f
}
