// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Input limits
const (
	MinPassphraseLength = 8
	MaxPassphraseLength = 512
	MaxLabelLength      = 16
)

// Validation errors
var (
	ErrInvalidPath        = errors.New("invalid device path")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrPassphraseTooShort = errors.New("passphrase too short (minimum 8 bytes)")
	ErrPassphraseTooLong  = errors.New("passphrase too long (maximum 512 bytes)")
	ErrInvalidLabel       = errors.New("invalid label (1-16 characters: letters, digits, '-', '_')")
	ErrInvalidMapperName  = errors.New("invalid mapper name")
)

// ValidateDevicePath validates a device path before it is handed to an
// external tool.
func ValidateDevicePath(device string) error {
	if device == "" {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(device)

	if strings.Contains(cleaned, "..") {
		return ErrInvalidPath
	}
	if !filepath.IsAbs(cleaned) {
		return ErrInvalidPath
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	// Block devices for real runs; regular files allowed for loop-backed tests.
	mode := info.Mode()
	if !mode.IsRegular() && (mode&os.ModeDevice == 0) {
		return ErrInvalidPath
	}

	return nil
}

// ValidatePassphrase validates passphrase length.
func ValidatePassphrase(passphrase []byte) error {
	if len(passphrase) < MinPassphraseLength {
		return ErrPassphraseTooShort
	}
	if len(passphrase) > MaxPassphraseLength {
		return ErrPassphraseTooLong
	}
	return nil
}

// ValidateLabel validates a user-chosen drive label. The label becomes part
// of the mapper name and the mount path, so it is kept to a safe charset.
func ValidateLabel(label string) error {
	if label == "" || len(label) > MaxLabelLength {
		return ErrInvalidLabel
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ErrInvalidLabel
		}
	}
	return nil
}

// ValidateMapperName validates a device-mapper mapping name.
func ValidateMapperName(name string) error {
	if name == "" || len(name) > 64 || strings.ContainsAny(name, "/ \t\n") {
		return ErrInvalidMapperName
	}
	return nil
}

// MapperName derives the mapping name for a drive: the prefixed label when
// one was chosen, otherwise a prefixed random suffix.
func MapperName(prefix, label string) string {
	if prefix == "" {
		prefix = DefaultMapperPrefix
	}
	if label != "" {
		return prefix + "-" + label
	}
	return prefix + "-" + uuid.NewString()[:8]
}

// ClearBytes zeroes a passphrase buffer after use.
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
