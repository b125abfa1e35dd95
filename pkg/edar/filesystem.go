// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"errors"
	"fmt"
	"strings"
)

// FilesystemType represents supported filesystem types
type FilesystemType string

const (
	// FilesystemExt4 is the ext4 filesystem
	FilesystemExt4 FilesystemType = "ext4"

	// FilesystemXFS is the XFS filesystem
	FilesystemXFS FilesystemType = "xfs"

	// FilesystemBtrfs is the Btrfs filesystem
	FilesystemBtrfs FilesystemType = "btrfs"

	// FilesystemF2FS is the Flash-Friendly File System
	FilesystemF2FS FilesystemType = "f2fs"

	// FilesystemVFAT is the FAT32 filesystem
	FilesystemVFAT FilesystemType = "vfat"
)

// SupportedFilesystems returns the list of supported filesystem types.
func SupportedFilesystems() []FilesystemType {
	return []FilesystemType{
		FilesystemExt4,
		FilesystemXFS,
		FilesystemBtrfs,
		FilesystemF2FS,
		FilesystemVFAT,
	}
}

// IsFilesystemSupported checks if a filesystem type is supported.
func IsFilesystemSupported(fstype FilesystemType) bool {
	for _, fs := range SupportedFilesystems() {
		if fs == fstype {
			return true
		}
	}
	return false
}

// MkfsCommand returns the mkfs binary used for a filesystem type.
func MkfsCommand(fstype FilesystemType) (string, error) {
	switch fstype {
	case FilesystemExt4:
		return "mkfs.ext4", nil
	case FilesystemXFS:
		return "mkfs.xfs", nil
	case FilesystemBtrfs:
		return "mkfs.btrfs", nil
	case FilesystemF2FS:
		return "mkfs.f2fs", nil
	case FilesystemVFAT:
		return "mkfs.vfat", nil
	default:
		return "", fmt.Errorf("unsupported filesystem type: %s", fstype)
	}
}

// mkfsArgs builds the argv for a mkfs invocation. Label flags differ per
// tool; -F/-f force flags are passed because the mapped device is freshly
// created and confirmation already happened upstream.
func mkfsArgs(fstype FilesystemType, label, devicePath string) []string {
	var args []string
	switch fstype {
	case FilesystemExt4:
		if label != "" {
			args = append(args, "-L", label)
		}
		args = append(args, "-F")
	case FilesystemXFS:
		if label != "" {
			args = append(args, "-L", label)
		}
		args = append(args, "-f")
	case FilesystemBtrfs:
		if label != "" {
			args = append(args, "-L", label)
		}
		args = append(args, "-f")
	case FilesystemF2FS:
		if label != "" {
			args = append(args, "-l", label)
		}
		args = append(args, "-f")
	case FilesystemVFAT:
		args = append(args, "-F", "32")
		if label != "" {
			args = append(args, "-n", label)
		}
	}
	return append(args, devicePath)
}

// DetectFilesystem reports the filesystem type on a device as identified by
// blkid. A device without an identifiable filesystem yields an empty string.
func DetectFilesystem(devicePath string) (string, error) {
	out, err := runner.Run(nil, "blkid", "-o", "value", "-s", "TYPE", devicePath)
	if err != nil {
		// blkid exits 2 when it finds nothing to report.
		var ee *ExitError
		if errors.As(err, &ee) && ee.Code == 2 {
			return "", nil
		}
		return "", fmt.Errorf("blkid %s: %w", devicePath, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// MakeFilesystem creates a filesystem on an open mapping. The mapping name
// is resolved to its device node first, waiting for device-mapper to publish
// it.
func MakeFilesystem(name string, fstype FilesystemType, label string) error {
	if !IsFilesystemSupported(fstype) {
		return fmt.Errorf("unsupported filesystem type: %s", fstype)
	}

	devicePath, err := WaitForMapping(name)
	if err != nil {
		return fmt.Errorf("device not found: %s (is volume unlocked?)", name)
	}

	return MakeFilesystemOnDevice(devicePath, fstype, label)
}

// MakeFilesystemOnDevice creates a filesystem directly on a device path.
func MakeFilesystemOnDevice(devicePath string, fstype FilesystemType, label string) error {
	mkfs, err := MkfsCommand(fstype)
	if err != nil {
		return err
	}

	if _, err := runner.Run(nil, mkfs, mkfsArgs(fstype, label, devicePath)...); err != nil {
		return fmt.Errorf("%s failed: %w", mkfs, err)
	}

	return nil
}
