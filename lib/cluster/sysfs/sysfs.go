// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// isCardDevice returns true for DRM card device names (card0, card1,
// ...) but not connectors (card0-DP-1) or render nodes (renderD128).
func isCardDevice(name string) bool {
	suffix, found := strings.CutPrefix(name, "card")
	if !found || suffix == "" {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// readDriverName returns the basename of the device's "driver"
// symlink, or "" when there is none.
func readDriverName(devicePath string) string {
	link, err := os.Readlink(filepath.Join(devicePath, "driver"))
	if err != nil {
		return ""
	}
	return filepath.Base(link)
}

// firstHwmon returns the first hwmonN directory under the device's
// hwmon directory, or "".
func firstHwmon(devicePath string) string {
	entries, err := os.ReadDir(filepath.Join(devicePath, "hwmon"))
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "hwmon") {
			return filepath.Join(devicePath, "hwmon", entry.Name())
		}
	}
	return ""
}

// renderNodeForDevice finds the renderD* node whose PCI device is the
// same as the card's, and returns its path under devRoot.
func renderNodeForDevice(devicePath, sysRoot, devRoot string) string {
	cardPCIPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return ""
	}
	drmBase := filepath.Join(sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "renderD") {
			continue
		}
		renderPCIPath, err := filepath.EvalSymlinks(filepath.Join(drmBase, name, "device"))
		if err != nil {
			continue
		}
		if renderPCIPath == cardPCIPath {
			return filepath.Join(devRoot, "dri", name)
		}
	}
	return ""
}

// readSysfsInt64 reads a single integer from a sysfs attribute.
func readSysfsInt64(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return value, nil
}

// writeSysfs writes value to an existing sysfs attribute. Attributes
// are never created.
func writeSysfs(path, value string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(value); err != nil {
		file.Close()
		return fmt.Errorf("writing %q to %s: %w", strings.TrimSpace(value), path, err)
	}
	return file.Close()
}
