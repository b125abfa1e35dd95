// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/anatol/devmapper.go"
)

// dmInfo is the slice of device-mapper state this package consumes.
type dmInfo struct {
	DevNo uint64
}

// Test seams: device-mapper query and the /dev/mapper directory.
var (
	dmQuery = func(name string) (*dmInfo, error) {
		info, err := devmapper.InfoByName(name)
		if err != nil {
			return nil, err
		}
		return &dmInfo{DevNo: uint64(info.DevNo)}, nil
	}
	mapperDir = "/dev/mapper"
)

// IsUnlocked checks if a device-mapper mapping exists. The kernel is asked
// first; the /dev/mapper symlink may be stale when udev lags.
func IsUnlocked(name string) bool {
	if _, err := dmQuery(name); err == nil {
		return true
	}

	if fi, err := os.Stat(filepath.Join(mapperDir, name)); err == nil {
		if fi.Mode()&os.ModeDevice != 0 {
			return true
		}
	}

	return false
}

// MappedDevicePath returns the device path for an open mapping. It prefers
// the udev-created /dev/mapper symlink and falls back to /dev/dm-<minor> for
// environments without udev.
func MappedDevicePath(name string) (string, error) {
	symlink := filepath.Join(mapperDir, name)
	if _, err := os.Stat(symlink); err == nil {
		return symlink, nil
	}

	info, err := dmQuery(name)
	if err != nil {
		return "", fmt.Errorf("mapping %s not found: %w", name, err)
	}

	minor := info.DevNo & 0xFF
	if info.DevNo > 0xFFFF {
		minor = info.DevNo & 0xFFFFFFFF
	}

	return fmt.Sprintf("/dev/dm-%d", minor), nil
}

// mappingPollInterval is shortened by tests.
var mappingPollInterval = 100 * time.Millisecond

// WaitForMapping polls until the mapped device node appears. Device-mapper
// creates nodes asynchronously after cryptsetup open returns.
func WaitForMapping(name string) (string, error) {
	var lastErr error
	for i := 0; i < 50; i++ {
		path, err := MappedDevicePath(name)
		if err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return path, nil
			}
		}
		lastErr = err
		time.Sleep(mappingPollInterval)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("device node for %s did not appear", name)
	}
	return "", lastErr
}

// ListMappings returns the open mapping names carrying the given prefix.
func ListMappings(prefix string) ([]string, error) {
	entries, err := os.ReadDir(mapperDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", mapperDir, err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "control" {
			continue
		}
		if strings.HasPrefix(name, prefix+"-") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
