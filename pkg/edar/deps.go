// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"sort"
)

// toolPackages maps required binaries to the Debian packages providing them.
var toolPackages = map[string]string{
	"cryptsetup": "cryptsetup",
	"mkfs.ext4":  "e2fsprogs",
	"mkfs.xfs":   "xfsprogs",
	"mkfs.btrfs": "btrfs-progs",
	"mkfs.f2fs":  "f2fs-tools",
	"mkfs.vfat":  "dosfstools",
}

// RequiredTools returns the binaries a setup run will invoke for the chosen
// filesystem.
func RequiredTools(fstype FilesystemType) ([]string, error) {
	mkfs, err := MkfsCommand(fstype)
	if err != nil {
		return nil, err
	}
	return []string{"cryptsetup", mkfs}, nil
}

// MissingTools reports which of the required binaries are not installed.
func MissingTools(fstype FilesystemType) ([]string, error) {
	tools, err := RequiredTools(fstype)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, tool := range tools {
		if _, err := runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing, nil
}

// InstallTools installs the packages providing the given binaries via
// apt-get. Requires root.
func InstallTools(tools []string) error {
	pkgSet := make(map[string]struct{})
	for _, tool := range tools {
		pkg, ok := toolPackages[tool]
		if !ok {
			return fmt.Errorf("no known package for tool: %s", tool)
		}
		pkgSet[pkg] = struct{}{}
	}

	pkgs := make([]string, 0, len(pkgSet))
	for pkg := range pkgSet {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	args := append([]string{"install", "-y"}, pkgs...)
	if _, err := runner.Run(nil, "apt-get", args...); err != nil {
		return fmt.Errorf("apt-get install failed: %w", err)
	}
	return nil
}
