// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Shell hook stanzas are delimited by marker comments so a later remove (or
// reinstall) edits exactly what was added and nothing else.
const (
	hookBegin = "# >>> edar managed block >>>"
	hookEnd   = "# <<< edar managed block <<<"

	bashrcFile     = ".bashrc"
	bashLogoutFile = ".bash_logout"
)

// HookOptions describes the drive the login/logout hooks operate on.
type HookOptions struct {
	Home       string // home directory holding the dotfiles
	Device     string // e.g. /dev/sdb
	MountPoint string // e.g. /media/vault
	MapperName string // e.g. edar-vault
}

// InstallHooks wires automatic unlock/lock into the shell: an `edar unlock`
// call in ~/.bashrc and an `edar lock` call in ~/.bash_logout. Reinstalling
// replaces any previous stanza.
func InstallHooks(opts HookOptions) error {
	if opts.Home == "" {
		return fmt.Errorf("home directory not set")
	}

	unlock := fmt.Sprintf("edar unlock %s %s", opts.Device, opts.MountPoint)
	lock := fmt.Sprintf("edar lock %s", opts.MapperName)

	if err := writeHookBlock(filepath.Join(opts.Home, bashrcFile), unlock); err != nil {
		return err
	}
	return writeHookBlock(filepath.Join(opts.Home, bashLogoutFile), lock)
}

// RemoveHooks strips the managed stanzas from both dotfiles. Files without a
// stanza are left untouched.
func RemoveHooks(home string) error {
	if home == "" {
		return fmt.Errorf("home directory not set")
	}
	for _, name := range []string{bashrcFile, bashLogoutFile} {
		if err := removeHookBlock(filepath.Join(home, name)); err != nil {
			return err
		}
	}
	return nil
}

// HooksInstalled reports whether ~/.bashrc carries a managed stanza.
func HooksInstalled(home string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(home, bashrcFile)) // #nosec G304 -- dotfile under the caller's home
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(string(data), hookBegin), nil
}

func writeHookBlock(path, command string) error {
	content := ""
	if data, err := os.ReadFile(path); err == nil { // #nosec G304 -- dotfile under the caller's home
		content = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	content = stripHookBlock(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += hookBegin + "\n" + command + "\n" + hookEnd + "\n"

	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306 -- shell dotfiles are world-readable by convention
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func removeHookBlock(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- dotfile under the caller's home
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	stripped := stripHookBlock(string(data))
	if stripped == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(stripped), 0644); err != nil { // #nosec G306 -- shell dotfiles are world-readable by convention
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// stripHookBlock removes the marker-delimited stanza, including the trailing
// newline after the end marker.
func stripHookBlock(content string) string {
	begin := strings.Index(content, hookBegin)
	if begin == -1 {
		return content
	}
	end := strings.Index(content[begin:], hookEnd)
	if end == -1 {
		// Unterminated stanza: drop everything from the begin marker.
		return content[:begin]
	}
	rest := content[begin+end+len(hookEnd):]
	rest = strings.TrimPrefix(rest, "\n")
	return content[:begin] + rest
}
