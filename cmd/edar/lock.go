// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newLockCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "lock <name>",
		Short: "Unmount an encrypted drive and close its mapping",
		Long: `Lock unmounts the drive's filesystem and closes the LUKS mapping. This is
the command the logout hook runs; locking a drive that is already locked is
not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lock(args[0])
		},
	}
}

// Lock unmounts and closes the mapping given by name (or a /dev/mapper
// path).
func (a *App) Lock(target string) error {
	name := target
	if strings.HasPrefix(target, "/dev/mapper/") {
		name = filepath.Base(target)
	}
	devicePath := "/dev/mapper/" + name

	if !a.Ops.IsUnlocked(name) {
		fmt.Fprintf(a.Stdout, "Mapping %s is not open.\n", name)
		return nil
	}

	mountPoint, mounted, err := a.Ops.MountPointForDevice(devicePath)
	if err != nil {
		return err
	}
	if mounted {
		fmt.Fprintf(a.Stdout, "Unmounting %s...\n", mountPoint)
		if err := a.Ops.Unmount(mountPoint, 0); err != nil {
			a.Log.WithError(err).Error("unmount failed")
			return err
		}
	}

	fmt.Fprintf(a.Stdout, "Closing %s...\n", name)
	if err := a.Ops.LuksClose(name); err != nil {
		a.Log.WithError(err).Error("luksClose failed")
		return err
	}

	a.Log.WithField("mapping", name).Info("drive locked")
	fmt.Fprintln(a.Stdout, "Drive locked.")
	return nil
}
