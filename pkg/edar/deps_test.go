// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredTools(t *testing.T) {
	tools, err := RequiredTools(FilesystemBtrfs)
	require.NoError(t, err)
	assert.Equal(t, []string{"cryptsetup", "mkfs.btrfs"}, tools)

	_, err = RequiredTools("ntfs")
	assert.Error(t, err)
}

func TestMissingTools(t *testing.T) {
	fake := swapRunner(t)
	fake.LookPathFunc = func(file string) (string, error) {
		if file == "cryptsetup" {
			return "/usr/sbin/cryptsetup", nil
		}
		return "", assert.AnError
	}

	missing, err := MissingTools(FilesystemExt4)
	require.NoError(t, err)
	assert.Equal(t, []string{"mkfs.ext4"}, missing)
}

func TestMissingTools_AllPresent(t *testing.T) {
	swapRunner(t)

	missing, err := MissingTools(FilesystemExt4)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestInstallTools(t *testing.T) {
	fake := swapRunner(t)

	err := InstallTools([]string{"mkfs.ext4", "cryptsetup"})
	require.NoError(t, err)

	require.Len(t, fake.Calls, 1)
	assert.Equal(t, "apt-get", fake.Calls[0].Name)
	assert.Equal(t, []string{"install", "-y", "cryptsetup", "e2fsprogs"}, fake.Calls[0].Args)
}

func TestInstallTools_UnknownTool(t *testing.T) {
	fake := swapRunner(t)

	err := InstallTools([]string{"mkfs.zfs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no known package")
	assert.Empty(t, fake.Calls)
}

func TestInstallTools_AptFailure(t *testing.T) {
	fake := swapRunner(t)
	fake.RunFunc = func(stdin []byte, name string, args ...string) ([]byte, error) {
		return nil, &ExitError{Cmd: name, Code: 100, Output: []byte("Unable to locate package")}
	}

	err := InstallTools([]string{"cryptsetup"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apt-get install failed")
}
