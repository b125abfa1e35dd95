// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDevicePath(t *testing.T) {
	device := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(device, nil, 0600))

	assert.NoError(t, ValidateDevicePath(device))
	assert.ErrorIs(t, ValidateDevicePath(""), ErrInvalidPath)
	assert.ErrorIs(t, ValidateDevicePath("dev/sdb"), ErrInvalidPath)
	assert.ErrorIs(t, ValidateDevicePath("/dev/../etc/passwd/../sdb"), ErrDeviceNotFound)
	assert.ErrorIs(t, ValidateDevicePath("/dev/no-such-device-zz"), ErrDeviceNotFound)

	dir := t.TempDir()
	assert.ErrorIs(t, ValidateDevicePath(dir), ErrInvalidPath, "directories are not devices")
}

func TestValidatePassphrase(t *testing.T) {
	assert.ErrorIs(t, ValidatePassphrase(nil), ErrPassphraseTooShort)
	assert.ErrorIs(t, ValidatePassphrase([]byte("seven77")), ErrPassphraseTooShort)
	assert.NoError(t, ValidatePassphrase([]byte("eight888")))
	assert.NoError(t, ValidatePassphrase(bytes.Repeat([]byte("x"), MaxPassphraseLength)))
	assert.ErrorIs(t, ValidatePassphrase(bytes.Repeat([]byte("x"), MaxPassphraseLength+1)), ErrPassphraseTooLong)
}

func TestValidateLabel(t *testing.T) {
	assert.NoError(t, ValidateLabel("vault"))
	assert.NoError(t, ValidateLabel("Backup_2025-08"))
	assert.NoError(t, ValidateLabel("a"))

	assert.ErrorIs(t, ValidateLabel(""), ErrInvalidLabel)
	assert.ErrorIs(t, ValidateLabel("has space"), ErrInvalidLabel)
	assert.ErrorIs(t, ValidateLabel("semi;colon"), ErrInvalidLabel)
	assert.ErrorIs(t, ValidateLabel("slash/y"), ErrInvalidLabel)
	assert.ErrorIs(t, ValidateLabel(strings.Repeat("a", MaxLabelLength+1)), ErrInvalidLabel)
}

func TestValidateMapperName(t *testing.T) {
	assert.NoError(t, ValidateMapperName("edar-vault"))
	assert.ErrorIs(t, ValidateMapperName(""), ErrInvalidMapperName)
	assert.ErrorIs(t, ValidateMapperName("with space"), ErrInvalidMapperName)
	assert.ErrorIs(t, ValidateMapperName("with/slash"), ErrInvalidMapperName)
	assert.ErrorIs(t, ValidateMapperName(strings.Repeat("a", 65)), ErrInvalidMapperName)
}

func TestMapperName(t *testing.T) {
	assert.Equal(t, "edar-vault", MapperName("edar", "vault"))
	assert.Equal(t, "vol-vault", MapperName("vol", "vault"))

	// Without a label the suffix is random but fixed-length.
	name := MapperName("edar", "")
	assert.True(t, strings.HasPrefix(name, "edar-"))
	assert.Len(t, name, len("edar-")+8)

	// Empty prefix falls back to the default.
	assert.Equal(t, DefaultMapperPrefix+"-vault", MapperName("", "vault"))
}

func TestClearBytes(t *testing.T) {
	b := []byte("supersecret")
	ClearBytes(b)
	assert.Equal(t, make([]byte, len("supersecret")), b)
}
