// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"errors"
	"fmt"
	"strings"
)

// All LUKS operations are delegated to the cryptsetup binary. This package
// never touches key material beyond piping the passphrase to stdin.
const cryptsetupCmd = "cryptsetup"

// Default LUKS2 parameters passed to luksFormat.
const (
	DefaultLuksHash    = "sha256"
	DefaultLuksCipher  = "aes-xts-plain64"
	DefaultLuksKeySize = "512"
)

// luksFormatArgs builds the argv for a non-interactive luksFormat. The
// passphrase is read from stdin via --key-file so it never appears in argv.
func luksFormatArgs(device string) []string {
	return []string{
		"-q",
		"luksFormat",
		"--type", "luks2",
		"--hash", DefaultLuksHash,
		"--cipher", DefaultLuksCipher,
		"--key-size", DefaultLuksKeySize,
		device,
		"--key-file", "/dev/stdin",
	}
}

func luksOpenArgs(device, name string) []string {
	return []string{"open", device, name, "--key-file", "/dev/stdin"}
}

// LuksFormat formats device as a LUKS2 container. Destroys all existing data;
// callers hold the confirmation gate.
func LuksFormat(device string, passphrase []byte) error {
	if err := ValidateDevicePath(device); err != nil {
		return err
	}
	if err := ValidatePassphrase(passphrase); err != nil {
		return err
	}
	if _, err := runner.Run(passphrase, cryptsetupCmd, luksFormatArgs(device)...); err != nil {
		return fmt.Errorf("luksFormat %s: %w", device, err)
	}
	return nil
}

// LuksOpen unlocks device and maps it at /dev/mapper/<name>.
func LuksOpen(device, name string, passphrase []byte) error {
	if err := ValidateDevicePath(device); err != nil {
		return err
	}
	if err := ValidateMapperName(name); err != nil {
		return err
	}
	if IsUnlocked(name) {
		return fmt.Errorf("mapping %s already exists: close it first with: edar lock %s", name, name)
	}
	if _, err := runner.Run(passphrase, cryptsetupCmd, luksOpenArgs(device, name)...); err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}
	return nil
}

// LuksClose removes the device-mapper mapping for name.
func LuksClose(name string) error {
	if err := ValidateMapperName(name); err != nil {
		return err
	}
	if _, err := runner.Run(nil, cryptsetupCmd, "close", name); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// IsLuks reports whether device already carries a LUKS header. cryptsetup
// signals "not LUKS" with exit status 1, which is not an error here.
func IsLuks(device string) (bool, error) {
	_, err := runner.Run(nil, cryptsetupCmd, "isLuks", device)
	if err != nil {
		var ee *ExitError
		if errors.As(err, &ee) && ee.Code == 1 {
			return false, nil
		}
		return false, fmt.Errorf("isLuks %s: %w", device, err)
	}
	return true, nil
}

// LuksUUID returns the container UUID of a LUKS-formatted device.
func LuksUUID(device string) (string, error) {
	out, err := runner.Run(nil, cryptsetupCmd, "luksUUID", device)
	if err != nil {
		return "", fmt.Errorf("luksUUID %s: %w", device, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// MappingStatus returns the raw `cryptsetup status` report for a mapping.
func MappingStatus(name string) (string, error) {
	out, err := runner.Run(nil, cryptsetupCmd, "status", name)
	if err != nil {
		return "", fmt.Errorf("status %s: %w", name, err)
	}
	return string(out), nil
}
