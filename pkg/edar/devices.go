// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Drive describes a whole block device that is a candidate for encryption.
type Drive struct {
	Name        string // kernel name, e.g. "sdb"
	Path        string // /dev/sdb
	SizeBytes   int64
	Model       string
	Removable   bool
	MountPoints []string // mountpoints of the device or any of its partitions
}

// Mounted reports whether the drive or any of its partitions is mounted.
func (d Drive) Mounted() bool {
	return len(d.MountPoints) > 0
}

// System reports whether the drive carries the running system. Formatting it
// is never offered.
func (d Drive) System() bool {
	for _, mp := range d.MountPoints {
		if mp == "/" || mp == "/boot" || strings.HasPrefix(mp, "/boot/") {
			return true
		}
	}
	return false
}

// Test seams: sysfs root and the gopsutil partition source.
var (
	sysBlockPath   = "/sys/block"
	diskPartitions = disk.Partitions
)

// Devices excluded from candidate listings: virtual and read-only devices.
var excludedPrefixes = []string{"loop", "zram", "ram", "dm-", "sr", "fd", "md"}

// ListDrives enumerates whole block devices from sysfs, annotated with size,
// model and current mountpoints.
func ListDrives() ([]Drive, error) {
	entries, err := os.ReadDir(sysBlockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sysBlockPath, err)
	}

	mounts, err := partitionMounts()
	if err != nil {
		return nil, err
	}

	var drives []Drive
	for _, entry := range entries {
		name := entry.Name()
		if isExcludedDevice(name) {
			continue
		}

		d := Drive{
			Name:      name,
			Path:      "/dev/" + name,
			SizeBytes: readDeviceSize(name),
			Model:     readDeviceModel(name),
			Removable: readSysfsFlag(filepath.Join(sysBlockPath, name, "removable")),
		}

		for dev, mp := range mounts {
			if belongsToDrive(dev, d.Path) {
				d.MountPoints = append(d.MountPoints, mp...)
			}
		}
		sort.Strings(d.MountPoints)

		drives = append(drives, d)
	}

	sort.Slice(drives, func(i, j int) bool { return drives[i].Name < drives[j].Name })
	return drives, nil
}

// ListCandidateDrives returns drives that are safe to offer for formatting:
// everything except the system drive.
func ListCandidateDrives() ([]Drive, error) {
	drives, err := ListDrives()
	if err != nil {
		return nil, err
	}
	candidates := drives[:0]
	for _, d := range drives {
		if d.System() {
			continue
		}
		candidates = append(candidates, d)
	}
	return candidates, nil
}

// Usage returns filesystem usage for a mounted path.
func Usage(path string) (*disk.UsageStat, error) {
	return disk.Usage(path)
}

// belongsToDrive reports whether dev is the drive itself or one of its
// partitions. A bare prefix match is not enough: /dev/sdab1 is not a
// partition of /dev/sda, and /dev/nvme0n10p1 is not one of /dev/nvme0n1.
// The kernel appends bare digits to names ending in a letter (sdb1) and
// p plus digits to names ending in a digit (nvme0n1p1, mmcblk0p2).
func belongsToDrive(dev, drivePath string) bool {
	if dev == drivePath {
		return true
	}
	rest, ok := strings.CutPrefix(dev, drivePath)
	if !ok || rest == "" {
		return false
	}
	if isDigit(drivePath[len(drivePath)-1]) {
		return len(rest) > 1 && rest[0] == 'p' && isDigit(rest[1])
	}
	return isDigit(rest[0])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isExcludedDevice(name string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// readDeviceSize reads the device size in bytes from sysfs. The size file
// counts 512-byte sectors regardless of the device's logical sector size.
func readDeviceSize(name string) int64 {
	data, err := os.ReadFile(filepath.Join(sysBlockPath, name, "size"))
	if err != nil {
		return 0
	}
	sectors, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return sectors * 512
}

// readDeviceModel reads the hardware model, falling back to vendor+product
// and finally the kernel name.
func readDeviceModel(name string) string {
	devDir := filepath.Join(sysBlockPath, name, "device")

	if data, err := os.ReadFile(filepath.Join(devDir, "model")); err == nil {
		if model := strings.TrimSpace(string(data)); model != "" {
			return model
		}
	}

	vendor := ""
	product := ""
	if data, err := os.ReadFile(filepath.Join(devDir, "vendor")); err == nil {
		vendor = strings.TrimSpace(string(data))
	}
	if data, err := os.ReadFile(filepath.Join(devDir, "product")); err == nil {
		product = strings.TrimSpace(string(data))
	}
	if vendor != "" && product != "" {
		return vendor + " " + product
	}

	return name
}

func readSysfsFlag(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// partitionMounts maps device paths to their mountpoints.
func partitionMounts() (map[string][]string, error) {
	parts, err := diskPartitions(false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	mounts := make(map[string][]string)
	for _, p := range parts {
		mounts[p.Device] = append(mounts[p.Device], p.Mountpoint)
	}
	return mounts, nil
}
