package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML string parsing ("500us", "5s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// TopologyConfig describes the simulated device fleet and the initial
// component placement.
type TopologyConfig struct {
	// Devices maps device id to slot capacity.
	Devices map[string]int `yaml:"devices"`
	// Placement maps component id to the device it initially resides on.
	Placement map[string]string `yaml:"placement"`
}

// WorkloadConfig holds workload generation configuration.
type WorkloadConfig struct {
	Workers            int           `yaml:"workers"`
	QueueSize          int           `yaml:"queue_size"`
	Transfers          int           `yaml:"transfers"`
	Seed               int64         `yaml:"seed"`
	AddWeight          int           `yaml:"add_weight"`
	MoveWeight         int           `yaml:"move_weight"`
	RemoveWeight       int           `yaml:"remove_weight"`
	MinCallbackLatency Duration      `yaml:"min_callback_latency"`
	MaxCallbackLatency Duration      `yaml:"max_callback_latency"`
	StatsInterval      Duration      `yaml:"stats_interval"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the complete configuration for the simulator.
type Config struct {
	Topology TopologyConfig `yaml:"topology"`
	Workload WorkloadConfig `yaml:"workload"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoadConfig loads configuration from a file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for unspecified configuration.
func setDefaults(cfg *Config) {
	if cfg.Workload.Workers == 0 {
		cfg.Workload.Workers = 8
	}
	if cfg.Workload.QueueSize == 0 {
		cfg.Workload.QueueSize = 64
	}
	if cfg.Workload.Transfers == 0 {
		cfg.Workload.Transfers = 1000
	}
	if cfg.Workload.AddWeight == 0 && cfg.Workload.MoveWeight == 0 && cfg.Workload.RemoveWeight == 0 {
		cfg.Workload.AddWeight = 2
		cfg.Workload.MoveWeight = 5
		cfg.Workload.RemoveWeight = 2
	}
	if cfg.Workload.MaxCallbackLatency == 0 {
		cfg.Workload.MaxCallbackLatency = Duration(5 * time.Millisecond)
	}
	if cfg.Workload.StatsInterval == 0 {
		cfg.Workload.StatsInterval = Duration(5 * time.Second)
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Topology.Devices) == 0 {
		return fmt.Errorf("topology.devices must not be empty")
	}
	for id, capacity := range c.Topology.Devices {
		if capacity <= 0 {
			return fmt.Errorf("topology.devices['%s'] must have positive capacity", id)
		}
	}
	if len(c.Topology.Placement) == 0 {
		return fmt.Errorf("topology.placement must not be empty")
	}
	for component, device := range c.Topology.Placement {
		if _, ok := c.Topology.Devices[device]; !ok {
			return fmt.Errorf("topology.placement['%s'] references unknown device '%s'", component, device)
		}
	}
	if c.Workload.Workers < 1 {
		return fmt.Errorf("workload.workers must be at least 1")
	}
	if c.Workload.Transfers < 1 {
		return fmt.Errorf("workload.transfers must be at least 1")
	}
	if c.Workload.MinCallbackLatency > c.Workload.MaxCallbackLatency {
		return fmt.Errorf("workload.min_callback_latency must not exceed workload.max_callback_latency")
	}
	if c.Workload.AddWeight < 0 || c.Workload.MoveWeight < 0 || c.Workload.RemoveWeight < 0 {
		return fmt.Errorf("workload weights must be non-negative")
	}
	if c.Workload.AddWeight+c.Workload.MoveWeight+c.Workload.RemoveWeight == 0 {
		return fmt.Errorf("at least one workload weight must be positive")
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535")
	}
	return nil
}
