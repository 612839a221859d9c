// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "POWERLAUNCH_CONFIG"

// Config is the launcher configuration.
type Config struct {
	// Cluster selects the hardware driver and the devices it manages.
	Cluster ClusterConfig `yaml:"cluster"`

	// Prepare configures the pre-launch heat purge and stability wait.
	Prepare PrepareConfig `yaml:"prepare"`

	// PowerLog configures the power sampling daemon.
	PowerLog PowerLogConfig `yaml:"power_log"`

	// Metrics configures the end-of-run metrics textfile.
	Metrics MetricsConfig `yaml:"metrics"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`
}

// ClusterConfig selects the driver and its devices.
type ClusterConfig struct {
	// Driver names the cluster driver. Only "sysfs" exists.
	Driver string `yaml:"driver"`

	// Node is the node index whose power is sampled.
	Node int `yaml:"node"`

	// SysRoot and DevRoot relocate /sys and /dev, for containers that
	// bind-mount the host's trees elsewhere.
	SysRoot string `yaml:"sys_root"`
	DevRoot string `yaml:"dev_root"`

	// CPUs lists the logical CPUs to tune. Empty means all.
	CPUs []int `yaml:"cpus"`

	// GPUCards lists the DRM cards ("card0") to tune. Empty means every
	// amdgpu card.
	GPUCards []string `yaml:"gpu_cards"`

	// FanHwmon is the hwmon directory, relative to sys_root, that owns
	// the fan. Empty means the first GPU's.
	FanHwmon string `yaml:"fan_hwmon"`

	// BaselineWatts is added to every power reading for components
	// without a sensor.
	BaselineWatts int `yaml:"baseline_watts"`
}

// PrepareConfig configures the conditioning steps.
type PrepareConfig struct {
	// BlowingTime is how long the fan runs at 100% before the start
	// state is applied. Default: 10s
	BlowingTime Duration `yaml:"blowing_time"`

	// Window is the number of samples the stability test spans.
	// Default: 10
	Window int `yaml:"window"`

	// Threshold is the widest power spread, in watts, that counts as
	// stable. Zero demands a perfectly flat window. Default: 30
	Threshold int `yaml:"threshold"`

	// PollInterval is the pause between stability samples. Default: 0,
	// polling as fast as the driver answers.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout bounds the stability wait. Default: 0, no bound.
	Timeout Duration `yaml:"timeout"`
}

// PowerLogConfig configures the power daemon.
type PowerLogConfig struct {
	// Path is the progress/power log. Default: ./power.log
	Path string `yaml:"path"`

	// Threshold is the alert threshold in watts. Default: 1450
	Threshold int `yaml:"threshold"`

	// InitialInterval is the sampling interval until the workload
	// reports progress. Default: 10s
	InitialInterval Duration `yaml:"initial_interval"`

	// ActiveInterval is the sampling interval once progress has been
	// reported. Default: 0, sampling continuously.
	ActiveInterval Duration `yaml:"active_interval"`

	// Trace, when set, is the path of a compressed binary trace of
	// every sample.
	Trace string `yaml:"trace"`

	// AlertQueue is how many alerts may wait for the launcher before
	// new ones are dropped. Default: 64
	AlertQueue int `yaml:"alert_queue"`
}

// MetricsConfig configures metrics output.
type MetricsConfig struct {
	// Textfile, when set, is where the run's metrics are written in
	// Prometheus text format when the run ends. Point it into the
	// node_exporter textfile directory with a .prom extension.
	Textfile string `yaml:"textfile"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// State is the directory holding the run record.
	// Default: /run/powerlaunch
	State string `yaml:"state"`

	// LogFile, when set, receives a JSON copy of the launcher's log.
	LogFile string `yaml:"log_file"`
}

// RunRecord returns the path of the run record.
func (p PathsConfig) RunRecord() string {
	return filepath.Join(p.State, "run.json")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cluster: ClusterConfig{
			Driver:  "sysfs",
			SysRoot: "/sys",
			DevRoot: "/dev",
		},
		Prepare: PrepareConfig{
			BlowingTime: Duration(10 * time.Second),
			Window:      10,
			Threshold:   30,
		},
		PowerLog: PowerLogConfig{
			Path:            "./power.log",
			Threshold:       1450,
			InitialInterval: Duration(10 * time.Second),
			AlertQueue:      64,
		},
		Paths: PathsConfig{
			State: "/run/powerlaunch",
		},
	}
}

// Resolve loads the configuration named by flagPath, or by the
// POWERLAUNCH_CONFIG environment variable when flagPath is empty. With
// neither set it returns Default. The second result is the file that
// was loaded, or "".
func Resolve(flagPath string) (*Config, string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, "", nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Load loads configuration from the file named by POWERLAUNCH_CONFIG.
// It fails when the variable is not set.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your powerlaunch.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of Default and
// expands variables in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["POWERLAUNCH_STATE"] = c.Paths.State

	c.Paths.LogFile = expandVars(c.Paths.LogFile, vars)
	c.PowerLog.Path = expandVars(c.PowerLog.Path, vars)
	c.PowerLog.Trace = expandVars(c.PowerLog.Trace, vars)
	c.Metrics.Textfile = expandVars(c.Metrics.Textfile, vars)
	c.Cluster.SysRoot = expandVars(c.Cluster.SysRoot, vars)
	c.Cluster.DevRoot = expandVars(c.Cluster.DevRoot, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem found is
// reported, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Cluster.Driver != "sysfs" {
		errs = append(errs, fmt.Errorf("cluster.driver %q is not supported (want \"sysfs\")", c.Cluster.Driver))
	}
	if c.Cluster.Node < 0 {
		errs = append(errs, fmt.Errorf("cluster.node must not be negative"))
	}
	if c.Cluster.BaselineWatts < 0 {
		errs = append(errs, fmt.Errorf("cluster.baseline_watts must not be negative"))
	}
	for _, cpu := range c.Cluster.CPUs {
		if cpu < 0 {
			errs = append(errs, fmt.Errorf("cluster.cpus: %d is not a CPU number", cpu))
		}
	}

	if c.Prepare.Window < 1 {
		errs = append(errs, fmt.Errorf("prepare.window must be at least 1"))
	}
	if c.Prepare.Threshold < 0 {
		errs = append(errs, fmt.Errorf("prepare.threshold must not be negative"))
	}
	errs = appendNegative(errs, "prepare.blowing_time", c.Prepare.BlowingTime)
	errs = appendNegative(errs, "prepare.poll_interval", c.Prepare.PollInterval)
	errs = appendNegative(errs, "prepare.timeout", c.Prepare.Timeout)

	if c.PowerLog.Path == "" {
		errs = append(errs, fmt.Errorf("power_log.path is required"))
	}
	if c.PowerLog.Threshold < 1 {
		errs = append(errs, fmt.Errorf("power_log.threshold must be positive"))
	}
	if c.PowerLog.InitialInterval <= 0 {
		errs = append(errs, fmt.Errorf("power_log.initial_interval must be positive"))
	}
	errs = appendNegative(errs, "power_log.active_interval", c.PowerLog.ActiveInterval)
	if c.PowerLog.AlertQueue < 1 {
		errs = append(errs, fmt.Errorf("power_log.alert_queue must be at least 1"))
	}

	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}

	return errors.Join(errs...)
}

func appendNegative(errs []error, name string, d Duration) []error {
	if d < 0 {
		return append(errs, fmt.Errorf("%s must not be negative", name))
	}
	return errs
}
