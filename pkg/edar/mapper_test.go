// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnlocked(t *testing.T) {
	swapMapper(t)

	assert.False(t, IsUnlocked("edar-vault"), "no kernel state, no node")

	dmQuery = func(name string) (*dmInfo, error) {
		return &dmInfo{DevNo: 0x103}, nil
	}
	assert.True(t, IsUnlocked("edar-vault"))
}

func TestMappedDevicePath_PrefersSymlink(t *testing.T) {
	dir := swapMapper(t)
	node := filepath.Join(dir, "edar-vault")
	require.NoError(t, os.WriteFile(node, nil, 0600))

	path, err := MappedDevicePath("edar-vault")
	require.NoError(t, err)
	assert.Equal(t, node, path)
}

func TestMappedDevicePath_FallsBackToDmNode(t *testing.T) {
	swapMapper(t)
	dmQuery = func(name string) (*dmInfo, error) {
		return &dmInfo{DevNo: 0x103}, nil
	}

	path, err := MappedDevicePath("edar-vault")
	require.NoError(t, err)
	assert.Equal(t, "/dev/dm-3", path)
}

func TestMappedDevicePath_NotFound(t *testing.T) {
	swapMapper(t)

	_, err := MappedDevicePath("edar-vault")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestWaitForMapping(t *testing.T) {
	dir := swapMapper(t)
	prev := mappingPollInterval
	mappingPollInterval = time.Millisecond
	t.Cleanup(func() { mappingPollInterval = prev })

	node := filepath.Join(dir, "edar-vault")
	require.NoError(t, os.WriteFile(node, nil, 0600))

	path, err := WaitForMapping("edar-vault")
	require.NoError(t, err)
	assert.Equal(t, node, path)
}

func TestWaitForMapping_Timeout(t *testing.T) {
	swapMapper(t)
	prev := mappingPollInterval
	mappingPollInterval = time.Millisecond
	t.Cleanup(func() { mappingPollInterval = prev })

	_, err := WaitForMapping("edar-vault")
	require.Error(t, err)
}

func TestListMappings(t *testing.T) {
	dir := swapMapper(t)
	for _, name := range []string{"control", "edar-vault", "edar-backup", "cryptroot"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0600))
	}

	names, err := ListMappings("edar")
	require.NoError(t, err)
	assert.Equal(t, []string{"edar-backup", "edar-vault"}, names)
}

func TestListMappings_Empty(t *testing.T) {
	swapMapper(t)

	names, err := ListMappings("edar")
	require.NoError(t, err)
	assert.Empty(t, names)
}
