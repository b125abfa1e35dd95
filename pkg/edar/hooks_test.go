// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHookOptions = HookOptions{
	Device:     "/dev/sdb",
	MountPoint: "/media/vault",
	MapperName: "edar-vault",
}

func readDotfile(t *testing.T, home, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(home, name))
	require.NoError(t, err)
	return string(data)
}

func TestInstallHooks(t *testing.T) {
	home := t.TempDir()
	opts := testHookOptions
	opts.Home = home

	require.NoError(t, InstallHooks(opts))

	bashrc := readDotfile(t, home, ".bashrc")
	assert.Contains(t, bashrc, hookBegin)
	assert.Contains(t, bashrc, "edar unlock /dev/sdb /media/vault")
	assert.Contains(t, bashrc, hookEnd)

	logout := readDotfile(t, home, ".bash_logout")
	assert.Contains(t, logout, "edar lock edar-vault")

	installed, err := HooksInstalled(home)
	require.NoError(t, err)
	assert.True(t, installed)
}

func TestInstallHooks_PreservesExistingContent(t *testing.T) {
	home := t.TempDir()
	existing := "export PATH=$PATH:~/bin\nalias ll='ls -l'\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte(existing), 0644))

	opts := testHookOptions
	opts.Home = home
	require.NoError(t, InstallHooks(opts))

	bashrc := readDotfile(t, home, ".bashrc")
	assert.True(t, strings.HasPrefix(bashrc, existing), "existing content must stay first")
	assert.Contains(t, bashrc, "edar unlock")
}

func TestInstallHooks_ReinstallReplacesStanza(t *testing.T) {
	home := t.TempDir()
	opts := testHookOptions
	opts.Home = home

	require.NoError(t, InstallHooks(opts))

	opts.Device = "/dev/sdc"
	opts.MountPoint = "/media/other"
	require.NoError(t, InstallHooks(opts))

	bashrc := readDotfile(t, home, ".bashrc")
	assert.Equal(t, 1, strings.Count(bashrc, hookBegin), "reinstall must not stack stanzas")
	assert.Contains(t, bashrc, "edar unlock /dev/sdc /media/other")
	assert.NotContains(t, bashrc, "/dev/sdb")
}

func TestRemoveHooks(t *testing.T) {
	home := t.TempDir()
	existing := "# my bashrc\nexport EDITOR=vim\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte(existing), 0644))

	opts := testHookOptions
	opts.Home = home
	require.NoError(t, InstallHooks(opts))
	require.NoError(t, RemoveHooks(home))

	assert.Equal(t, existing, readDotfile(t, home, ".bashrc"))

	installed, err := HooksInstalled(home)
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestRemoveHooks_NoFiles(t *testing.T) {
	// Nothing to remove is not an error; the logout hook may run on a
	// machine where no hooks were ever installed.
	require.NoError(t, RemoveHooks(t.TempDir()))
}

func TestHooksInstalled_NoFile(t *testing.T) {
	installed, err := HooksInstalled(t.TempDir())
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestStripHookBlock_Unterminated(t *testing.T) {
	content := "keep this\n" + hookBegin + "\nedar unlock /dev/sdb /media/vault\n"
	assert.Equal(t, "keep this\n", stripHookBlock(content))
}

func TestInstallHooks_RequiresHome(t *testing.T) {
	err := InstallHooks(testHookOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home directory")
}
