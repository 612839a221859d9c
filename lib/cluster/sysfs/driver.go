// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysfs implements cluster.Driver for the local node using
// Linux sysfs.
//
// Clocks and fans are driven through the standard kernel interfaces:
//
//   - CPU: cpufreq policy files. A Set pins the frequency by writing
//     the same kHz value to scaling_min_freq and scaling_max_freq
//     (ordered so the min never exceeds the max). Reset restores
//     cpuinfo_min_freq and cpuinfo_max_freq.
//   - GPU (amdgpu): power_dpm_force_performance_level=manual, then the
//     overdrive table pp_od_clk_voltage ("s 1 <MHz>", commit "c").
//     Reset writes "r", commits, and returns the level to "auto".
//   - Fan: hwmon pwm1_enable=1 (manual) and pwm1 scaled from percent
//     to 0-255. Reset sets pwm1_enable=2 (automatic).
//
// Power is the sum of hwmon power1_average across the managed GPUs
// plus a configured baseline for unmetered components. When a GPU has
// no hwmon power attribute, the AMDGPU_INFO_SENSOR ioctl on its render
// node is used instead.
//
// The driver manages node 0 only.
package sysfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/bureau-foundation/powerlaunch/lib/cluster"
)

// Options selects the devices the driver manages.
type Options struct {
	// SysRoot is the sysfs mount point. Defaults to "/sys".
	SysRoot string

	// DevRoot is the device directory holding dri/renderD* nodes.
	// Defaults to "/dev".
	DevRoot string

	// CPUs lists the logical CPU numbers to tune. Empty means every
	// CPU with a cpufreq directory.
	CPUs []int

	// GPUCards lists DRM card names ("card0") to tune and meter.
	// Empty means every amdgpu card.
	GPUCards []string

	// FanHwmon is the hwmon directory (relative to SysRoot, e.g.
	// "class/hwmon/hwmon3") that owns the fan. Empty means the hwmon
	// directory of the first managed GPU.
	FanHwmon string

	// BaselineWatts is added to every power reading to account for
	// components without a power sensor.
	BaselineWatts int
}

type gpuDevice struct {
	card       string
	devicePath string
	hwmonPath  string
	renderFile *os.File
}

// Driver is the local-node sysfs cluster.Driver. Commands are
// serialised; power reads run concurrently with them.
type Driver struct {
	logger        *slog.Logger
	cpuPolicies   []string
	gpus          []gpuDevice
	fanHwmon      string
	baselineWatts int

	mu    sync.Mutex
	write func(path, value string) error
}

var _ cluster.Driver = (*Driver)(nil)

// New discovers the devices selected by options. Missing render nodes
// are logged and only disable the ioctl power fallback for that GPU.
func New(options Options, logger *slog.Logger) (*Driver, error) {
	if options.SysRoot == "" {
		options.SysRoot = "/sys"
	}
	if options.DevRoot == "" {
		options.DevRoot = "/dev"
	}

	driver := &Driver{
		logger:        logger,
		baselineWatts: options.BaselineWatts,
		write:         writeSysfs,
	}

	policies, err := discoverCPUPolicies(options.SysRoot, options.CPUs)
	if err != nil {
		return nil, err
	}
	driver.cpuPolicies = policies

	gpus, err := discoverGPUs(options, logger)
	if err != nil {
		return nil, err
	}
	driver.gpus = gpus

	switch {
	case options.FanHwmon != "":
		driver.fanHwmon = filepath.Join(options.SysRoot, options.FanHwmon)
	case len(gpus) > 0:
		driver.fanHwmon = gpus[0].hwmonPath
	}

	logger.Info("sysfs driver initialized",
		"cpu_policies", len(driver.cpuPolicies),
		"gpus", len(driver.gpus),
		"fan_hwmon", driver.fanHwmon,
		"baseline_watts", driver.baselineWatts)
	return driver, nil
}

func discoverCPUPolicies(sysRoot string, cpus []int) ([]string, error) {
	cpuBase := filepath.Join(sysRoot, "devices/system/cpu")
	if len(cpus) > 0 {
		policies := make([]string, 0, len(cpus))
		for _, cpu := range cpus {
			policy := filepath.Join(cpuBase, "cpu"+strconv.Itoa(cpu), "cpufreq")
			if _, err := os.Stat(policy); err != nil {
				return nil, fmt.Errorf("cpu %d has no cpufreq policy: %w", cpu, err)
			}
			policies = append(policies, policy)
		}
		return policies, nil
	}

	matches, err := filepath.Glob(filepath.Join(cpuBase, "cpu[0-9]*", "cpufreq"))
	if err != nil {
		return nil, fmt.Errorf("listing cpufreq policies: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

func discoverGPUs(options Options, logger *slog.Logger) ([]gpuDevice, error) {
	drmBase := filepath.Join(options.SysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		if len(options.GPUCards) > 0 {
			return nil, fmt.Errorf("reading %s: %w", drmBase, err)
		}
		return nil, nil
	}

	var gpus []gpuDevice
	for _, entry := range entries {
		name := entry.Name()
		if !isCardDevice(name) {
			continue
		}
		if len(options.GPUCards) > 0 && !slices.Contains(options.GPUCards, name) {
			continue
		}
		devicePath := filepath.Join(drmBase, name, "device")
		if driverName := readDriverName(devicePath); driverName != "amdgpu" {
			if len(options.GPUCards) > 0 {
				return nil, fmt.Errorf("%s is driven by %q, only amdgpu is supported", name, driverName)
			}
			continue
		}

		device := gpuDevice{
			card:       name,
			devicePath: devicePath,
			hwmonPath:  firstHwmon(devicePath),
		}
		if renderPath := renderNodeForDevice(devicePath, options.SysRoot, options.DevRoot); renderPath != "" {
			file, err := os.OpenFile(renderPath, os.O_RDWR, 0)
			if err != nil {
				logger.Warn("cannot open amdgpu render node, ioctl power fallback disabled",
					"card", name,
					"render_node", renderPath,
					"error", err)
			} else {
				device.renderFile = file
			}
		}
		gpus = append(gpus, device)
	}

	for _, card := range options.GPUCards {
		if !slices.ContainsFunc(gpus, func(device gpuDevice) bool { return device.card == card }) {
			return nil, fmt.Errorf("gpu card %s not found under %s", card, drmBase)
		}
	}
	return gpus, nil
}

// Apply carries out one command across every managed device of the
// target. Per-device failures are joined; the remaining devices are
// still attempted.
func (d *Driver) Apply(ctx context.Context, command cluster.Command) error {
	if err := command.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch command.Target {
	case cluster.CPU:
		return d.applyCPU(command)
	case cluster.GPU:
		return d.applyGPU(command)
	default:
		return d.applyFan(command)
	}
}

func (d *Driver) applyCPU(command cluster.Command) error {
	if len(d.cpuPolicies) == 0 {
		return errors.New("no cpufreq policies to tune")
	}
	var errs []error
	for _, policy := range d.cpuPolicies {
		var minimum, maximum int64
		if command.Op == cluster.Reset {
			var err error
			if minimum, err = readSysfsInt64(filepath.Join(policy, "cpuinfo_min_freq")); err != nil {
				errs = append(errs, err)
				continue
			}
			if maximum, err = readSysfsInt64(filepath.Join(policy, "cpuinfo_max_freq")); err != nil {
				errs = append(errs, err)
				continue
			}
		} else {
			minimum = int64(command.Value) * 1000
			maximum = minimum
		}

		// Lowering writes the min first, raising writes the max first,
		// so the kernel never sees min > max.
		currentMinimum, err := readSysfsInt64(filepath.Join(policy, "scaling_min_freq"))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		minimumPath := filepath.Join(policy, "scaling_min_freq")
		maximumPath := filepath.Join(policy, "scaling_max_freq")
		order := [][2]string{{maximumPath, strconv.FormatInt(maximum, 10)}, {minimumPath, strconv.FormatInt(minimum, 10)}}
		if minimum < currentMinimum {
			order[0], order[1] = order[1], order[0]
		}
		for _, step := range order {
			if err := d.write(step[0], step[1]); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) applyGPU(command cluster.Command) error {
	if len(d.gpus) == 0 {
		return errors.New("no amdgpu devices to tune")
	}
	var errs []error
	for _, device := range d.gpus {
		levelPath := filepath.Join(device.devicePath, "power_dpm_force_performance_level")
		tablePath := filepath.Join(device.devicePath, "pp_od_clk_voltage")
		var steps [][2]string
		if command.Op == cluster.Reset {
			steps = [][2]string{{tablePath, "r\n"}, {tablePath, "c\n"}, {levelPath, "auto\n"}}
		} else {
			steps = [][2]string{
				{levelPath, "manual\n"},
				{tablePath, fmt.Sprintf("s 1 %d\n", command.Value)},
				{tablePath, "c\n"},
			}
		}
		for _, step := range steps {
			if err := d.write(step[0], step[1]); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", device.card, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) applyFan(command cluster.Command) error {
	if d.fanHwmon == "" {
		return errors.New("no hwmon fan to control")
	}
	enablePath := filepath.Join(d.fanHwmon, "pwm1_enable")
	if command.Op == cluster.Reset {
		return d.write(enablePath, "2\n")
	}
	if err := d.write(enablePath, "1\n"); err != nil {
		return err
	}
	return d.write(filepath.Join(d.fanHwmon, "pwm1"), strconv.Itoa(percentToPWM(command.Value))+"\n")
}

// percentToPWM scales a 0-100 duty cycle onto the 0-255 pwm range,
// rounding to nearest.
func percentToPWM(percent int) int {
	return (percent*255 + 50) / 100
}

// ReadPower returns the summed GPU power plus the baseline, in watts.
func (d *Driver) ReadPower(ctx context.Context, node int) (int, error) {
	if node != 0 {
		return 0, fmt.Errorf("node %d: the sysfs driver manages only the local node 0", node)
	}
	if len(d.gpus) == 0 && d.baselineWatts == 0 {
		return 0, errors.New("no power sources configured")
	}

	total := d.baselineWatts
	for _, device := range d.gpus {
		watts, err := d.gpuPower(device)
		if err != nil {
			return 0, err
		}
		total += watts
	}
	return total, nil
}

func (d *Driver) gpuPower(device gpuDevice) (int, error) {
	if device.hwmonPath != "" {
		microwatts, err := readSysfsInt64(filepath.Join(device.hwmonPath, "power1_average"))
		if err == nil {
			return int(microwatts / 1_000_000), nil
		}
		if device.renderFile == nil {
			return 0, fmt.Errorf("%s power: %w", device.card, err)
		}
	}
	if device.renderFile == nil {
		return 0, fmt.Errorf("%s has neither a hwmon power sensor nor an open render node", device.card)
	}
	watts, err := querySensor(device.renderFile.Fd(), sensorGPUAvgPower)
	if err != nil {
		return 0, fmt.Errorf("%s power: %w", device.card, err)
	}
	return int(watts), nil
}

// Close releases the open render nodes.
func (d *Driver) Close() error {
	var errs []error
	for _, device := range d.gpus {
		if device.renderFile != nil {
			errs = append(errs, device.renderFile.Close())
		}
	}
	d.gpus = nil
	return errors.Join(errs...)
}
