// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// MountOptions contains options for mounting a mapped device.
type MountOptions struct {
	DevicePath string  // e.g. /dev/mapper/edar-vault
	MountPoint string  // e.g. /media/vault
	FSType     string  // e.g. "ext4"
	Flags      uintptr // mount flags (unix.MS_RDONLY, etc.)
	Data       string  // mount data/options
}

// Test seam for /proc/mounts.
var procMountsPath = "/proc/mounts"

// Mount mounts a device using the mount syscall.
func Mount(opts MountOptions) error {
	if _, err := os.Stat(opts.DevicePath); err != nil {
		return fmt.Errorf("device %s not found: is it unlocked?", opts.DevicePath)
	}
	if _, err := os.Stat(opts.MountPoint); os.IsNotExist(err) {
		return fmt.Errorf("mount point %s does not exist", opts.MountPoint)
	}

	if err := unix.Mount(opts.DevicePath, opts.MountPoint, opts.FSType, opts.Flags, opts.Data); err != nil {
		return fmt.Errorf("mount syscall failed: %w", err)
	}

	return nil
}

// Unmount unmounts a mountpoint using the unmount syscall.
func Unmount(mountPoint string, flags int) error {
	if err := unix.Unmount(mountPoint, flags); err != nil {
		return fmt.Errorf("unmount syscall failed: %w", err)
	}
	return nil
}

// EnsureMountPoint creates the mountpoint directory when missing.
func EnsureMountPoint(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(path, 0750); err != nil { // #nosec G301 -- mount points need directory access
		return fmt.Errorf("failed to create mountpoint %s: %w", path, err)
	}
	return nil
}

// IsMounted checks if a path is mounted by reading /proc/mounts.
func IsMounted(mountPoint string) (bool, error) {
	file, err := os.Open(procMountsPath)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", procMountsPath, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == mountPoint {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("error reading %s: %w", procMountsPath, err)
	}

	return false, nil
}

// MountPointForDevice returns where a device is mounted, if anywhere.
func MountPointForDevice(devicePath string) (string, bool, error) {
	file, err := os.Open(procMountsPath)
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", procMountsPath, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == devicePath {
			return fields[1], true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("error reading %s: %w", procMountsPath, err)
	}

	return "", false, nil
}
