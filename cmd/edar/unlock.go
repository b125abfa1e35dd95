// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anjaustin/edar/pkg/edar"
)

func newUnlockCmd(app *App) *cobra.Command {
	var fsName string

	cmd := &cobra.Command{
		Use:   "unlock <device> [mountpoint]",
		Short: "Unlock an encrypted drive and mount it",
		Long: `Unlock opens a LUKS drive and mounts its filesystem. This is the command
the login hook runs; it is safe to repeat — an already-open mapping or an
already-mounted filesystem is left alone.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountPoint := ""
			if len(args) > 1 {
				mountPoint = args[1]
			}
			return app.Unlock(args[0], mountPoint, fsName)
		},
	}

	cmd.Flags().StringVarP(&fsName, "filesystem", "f", "", "filesystem type on the drive (default: detected with blkid)")

	return cmd
}

// Unlock opens the LUKS container on device and mounts it. The mapping name
// is derived from the container UUID so repeated unlocks agree on it.
func (a *App) Unlock(device, mountPoint, fsName string) error {
	hasLuks, err := a.Ops.IsLuks(device)
	if err != nil {
		a.Log.WithError(err).Error("failed to probe device")
		return err
	}
	if !hasLuks {
		return fmt.Errorf("%s is not a LUKS device", device)
	}

	id, err := a.Ops.LuksUUID(device)
	if err != nil {
		a.Log.WithError(err).Error("failed to read container UUID")
		return err
	}
	name := a.Config.MapperPrefix + "-" + shortID(id)

	if a.Ops.IsUnlocked(name) {
		fmt.Fprintf(a.Stdout, "Already unlocked: /dev/mapper/%s\n", name)
	} else {
		passphrase, err := a.promptPassphrase(fmt.Sprintf("Passphrase for %s: ", device), false)
		if err != nil {
			return err
		}
		defer edar.ClearBytes(passphrase)

		if err := a.Ops.LuksOpen(device, name, passphrase); err != nil {
			a.Log.WithError(err).Error("luksOpen failed")
			return err
		}
		fmt.Fprintf(a.Stdout, "Unlocked: /dev/mapper/%s\n", name)
	}

	if mountPoint == "" {
		mountPoint = filepath.Join(a.Config.MountRoot, name)
	}

	mounted, err := a.Ops.IsMounted(mountPoint)
	if err != nil {
		return err
	}
	if mounted {
		fmt.Fprintf(a.Stdout, "Already mounted at %s\n", mountPoint)
		return nil
	}

	if err := a.Ops.EnsureMountPoint(mountPoint); err != nil {
		a.Log.WithError(err).Error("failed to create mountpoint")
		return err
	}

	devicePath, err := a.Ops.WaitForMapping(name)
	if err != nil {
		a.Log.WithError(err).Error("mapped device did not appear")
		return err
	}

	// The hook stanza passes no filesystem, so read it off the mapped
	// device rather than assuming the configured default.
	fstype := strings.ToLower(fsName)
	if fstype == "" {
		detected, err := a.Ops.DetectFilesystem(devicePath)
		if err != nil || detected == "" {
			a.Log.WithError(err).Warn("filesystem detection failed, using configured default")
			fstype = a.Config.Filesystem
		} else {
			fstype = detected
		}
	}
	if err := a.Ops.Mount(edar.MountOptions{
		DevicePath: devicePath,
		MountPoint: mountPoint,
		FSType:     fstype,
	}); err != nil {
		a.Log.WithError(err).Error("mount failed")
		return err
	}

	a.Log.WithFields(map[string]interface{}{"device": device, "mountpoint": mountPoint}).Info("drive unlocked")
	fmt.Fprintf(a.Stdout, "Mounted at %s\n", mountPoint)
	return nil
}

// shortID truncates a container UUID for use in a mapping name.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
