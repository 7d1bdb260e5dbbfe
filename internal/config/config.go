// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
)

// Defaults applied when a key is absent.
const (
	DefaultNodeName            = "pressure-node"
	DefaultBroker              = "tcp://localhost:1883"
	DefaultDiscoveryPrefix     = "homeassistant"
	DefaultUpdateInterval      = 60 * time.Second
	DefaultOversamplingSamples = 4
	DefaultWebListen           = ":8080"
	DefaultStaticDir           = "web"
	DefaultHistoryRetention    = 24 * time.Hour
	DefaultXDRBaud             = 4800
	DefaultXDRTalker           = "II"
	DefaultDisplayAddress      = 0x3C
	DefaultDisplayInterval     = time.Second
)

// Config holds all application configuration values.
type Config struct {
	Node    NodeConfig     `yaml:"node"`
	I2C     I2CConfig      `yaml:"i2c"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Sensors []SensorConfig `yaml:"ams5935"`
	Web     WebConfig      `yaml:"web"`
	Metrics MetricsConfig  `yaml:"metrics"`
	History HistoryConfig  `yaml:"history"`
	Influx  InfluxConfig   `yaml:"influx"`
	XDR     XDRConfig      `yaml:"xdr"`
	Display DisplayConfig  `yaml:"display"`
}

type NodeConfig struct {
	Name string `yaml:"name"`
}

type I2CConfig struct {
	Bus string `yaml:"bus"` // periph bus name, "" for the first bus
}

type MQTTConfig struct {
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`
	DiscoveryPrefix string `yaml:"discovery_prefix"` // "" disables discovery
}

// SinkConfig configures an optional pressure or temperature sensor.
type SinkConfig struct {
	Name string `yaml:"name"`
}

// SensorConfig is one AMS5935 entry.
type SensorConfig struct {
	ID                  string      `yaml:"id"`
	Model               string      `yaml:"model"`
	Oversampling        bool        `yaml:"oversampling"`
	OversamplingSamples int         `yaml:"oversampling_samples"`
	OnChipOversampling  bool        `yaml:"on_chip_oversampling"`
	Address             uint16      `yaml:"address"`
	UpdateInterval      Interval    `yaml:"update_interval"`
	Pressure            *SinkConfig `yaml:"pressure"`
	Temperature         *SinkConfig `yaml:"temperature"`

	// ModelID is the resolved model, set by validation.
	ModelID ams5935.Model `yaml:"-"`
}

type WebConfig struct {
	Listen    string `yaml:"listen"`
	StaticDir string `yaml:"static_dir"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // "" disables /metrics
}

type HistoryConfig struct {
	Path      string        `yaml:"path"` // "" disables the datalog
	Retention time.Duration `yaml:"retention"`
}

type InfluxConfig struct {
	URL    string `yaml:"url"` // "" disables InfluxDB output
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type XDRConfig struct {
	Port   string `yaml:"port"` // "" disables XDR output
	Baud   uint   `yaml:"baud"`
	Talker string `yaml:"talker"`
}

type DisplayConfig struct {
	Address        uint16        `yaml:"address"`
	Sensor         string        `yaml:"sensor"` // "" disables the display
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// Interval is a polling interval. Never disables polling.
type Interval time.Duration

// Never is the "never" update interval.
const Never Interval = -1

// UnmarshalYAML accepts "never" or a duration such as "500ms", "60s" or
// "1min".
func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "never" {
		*i = Never
		return nil
	}
	if strings.HasSuffix(s, "min") {
		s = strings.TrimSuffix(s, "in")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", value.Value, err)
	}
	if d <= 0 {
		return fmt.Errorf("interval %q must be positive", value.Value)
	}
	*i = Interval(d)
	return nil
}

// Duration returns the interval, 0 for Never.
func (i Interval) Duration() time.Duration {
	if i == Never {
		return 0
	}
	return time.Duration(i)
}

// Samples is the number of measurements averaged per reading.
func (s *SensorConfig) Samples() int {
	if !s.Oversampling {
		return 1
	}
	return s.OversamplingSamples
}

// Opts returns the driver options for the entry.
func (s *SensorConfig) Opts() ams5935.Opts {
	return ams5935.Opts{
		Model:              s.ModelID,
		Addr:               s.Address,
		Oversampling:       s.Samples(),
		OnChipOversampling: s.OnChipOversampling,
	}
}

// CycleTime is the conversion time of one reading of the sensor.
func (s *SensorConfig) CycleTime() time.Duration {
	o := s.Opts()
	return o.CycleTime()
}

// Sensor returns the entry with the given id.
func (c *Config) Sensor(id string) (*SensorConfig, bool) {
	for i := range c.Sensors {
		if c.Sensors[i].ID == id {
			return &c.Sensors[i], true
		}
	}
	return nil, false
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal load the file once.
//   - configMu guards globalConfig; Get takes the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a YAML configuration file. A .env file next to the working
// directory is loaded first if present, and ${VAR} references in the file
// are expanded from the environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()

	dec := yaml.NewDecoder(bytes.NewReader(expandEnv(data)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envRef matches a braced ${NAME} reference.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references with environment values. Any other
// '$' is kept as written.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(m[2 : len(m)-1])))
	})
}

// defaults returns a Config prefilled with the values used for absent keys.
func defaults() *Config {
	return &Config{
		Node: NodeConfig{Name: DefaultNodeName},
		MQTT: MQTTConfig{
			Broker:          DefaultBroker,
			DiscoveryPrefix: DefaultDiscoveryPrefix,
		},
		Web: WebConfig{
			Listen:    DefaultWebListen,
			StaticDir: DefaultStaticDir,
		},
		History: HistoryConfig{Retention: DefaultHistoryRetention},
		XDR:     XDRConfig{Baud: DefaultXDRBaud, Talker: DefaultXDRTalker},
		Display: DisplayConfig{
			Address:        DefaultDisplayAddress,
			UpdateInterval: DefaultDisplayInterval,
		},
	}
}

// applyDefaults fills values that depend on other keys.
func (c *Config) applyDefaults() {
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = c.Node.Name
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = c.Node.Name
	}
	for i := range c.Sensors {
		s := &c.Sensors[i]
		if s.Address == 0 {
			s.Address = ams5935.DefaultAddress
		}
		if s.UpdateInterval == 0 {
			s.UpdateInterval = Interval(DefaultUpdateInterval)
		}
		if s.Oversampling && s.OversamplingSamples == 0 {
			s.OversamplingSamples = DefaultOversamplingSamples
		}
	}
}

// validate checks cross-field constraints and resolves models.
func (c *Config) validate() error {
	if c.Node.Name == "" {
		return fmt.Errorf("node.name is required")
	}
	if len(c.Sensors) == 0 {
		return fmt.Errorf("at least one ams5935 entry is required")
	}
	seen := map[string]bool{}
	for i := range c.Sensors {
		s := &c.Sensors[i]
		if s.ID == "" {
			return fmt.Errorf("ams5935[%d]: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("ams5935[%s]: duplicate id", s.ID)
		}
		seen[s.ID] = true

		if s.Model == "" {
			return fmt.Errorf("ams5935[%s]: model is required", s.ID)
		}
		m, err := ams5935.Lookup(s.Model)
		if err != nil {
			return fmt.Errorf("ams5935[%s]: model: %w", s.ID, err)
		}
		s.ModelID = m

		if s.Oversampling {
			if s.OversamplingSamples < 2 || s.OversamplingSamples > ams5935.MaxOversampling {
				return fmt.Errorf("ams5935[%s]: oversampling_samples must be 2-%d, got %d", s.ID, ams5935.MaxOversampling, s.OversamplingSamples)
			}
		} else if s.OversamplingSamples != 0 {
			return fmt.Errorf("ams5935[%s]: oversampling_samples requires oversampling: true", s.ID)
		}
		if s.Address < 0x08 || s.Address > 0x77 {
			return fmt.Errorf("ams5935[%s]: address 0x%02X outside 0x08-0x77", s.ID, s.Address)
		}
		if d := s.UpdateInterval.Duration(); d > 0 {
			if cycle := s.CycleTime(); cycle >= d {
				return fmt.Errorf("ams5935[%s]: update_interval %s is shorter than the %s measurement cycle", s.ID, d, cycle)
			}
		}
		if s.Pressure != nil && s.Pressure.Name == "" {
			return fmt.Errorf("ams5935[%s]: pressure.name is required", s.ID)
		}
		if s.Temperature != nil && s.Temperature.Name == "" {
			return fmt.Errorf("ams5935[%s]: temperature.name is required", s.ID)
		}
	}

	if c.Influx.URL != "" && c.Influx.Bucket == "" {
		return fmt.Errorf("influx.bucket is required when influx.url is set")
	}
	if c.Display.Sensor != "" {
		if _, ok := c.Sensor(c.Display.Sensor); !ok {
			return fmt.Errorf("display.sensor %q does not name an ams5935 entry", c.Display.Sensor)
		}
		if c.Display.UpdateInterval <= 0 {
			return fmt.Errorf("display.update_interval must be positive")
		}
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the
// first call loads; later calls return the first result.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
