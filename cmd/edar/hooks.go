// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/anjaustin/edar/pkg/edar"
)

func newHooksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the shell login/logout hooks",
	}

	var (
		device     string
		mountPoint string
		name       string
	)

	install := &cobra.Command{
		Use:   "install",
		Short: "Wire automatic unlock/lock into ~/.bashrc and ~/.bash_logout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.HooksInstall(device, mountPoint, name)
		},
	}
	install.Flags().StringVarP(&device, "device", "d", "", "LUKS device to unlock at login")
	install.Flags().StringVarP(&mountPoint, "mountpoint", "m", "", "where to mount it")
	install.Flags().StringVarP(&name, "name", "n", "", "mapping name to lock at logout (default derived from the mountpoint)")
	_ = install.MarkFlagRequired("device")
	_ = install.MarkFlagRequired("mountpoint")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove the managed stanzas from the shell files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.HooksRemove()
		},
	}

	cmd.AddCommand(install, remove)
	return cmd
}

// HooksInstall writes the managed unlock/lock stanzas. The mapping name
// defaults to the prefix plus the mountpoint's base name, matching what
// setup creates.
func (a *App) HooksInstall(device, mountPoint, name string) error {
	if name == "" {
		name = a.Config.MapperPrefix + "-" + filepath.Base(mountPoint)
	}

	if err := a.Ops.InstallHooks(edar.HookOptions{
		Home:       a.Home,
		Device:     device,
		MountPoint: mountPoint,
		MapperName: name,
	}); err != nil {
		a.Log.WithError(err).Error("hook installation failed")
		return err
	}

	a.Log.WithFields(map[string]interface{}{"device": device, "mountpoint": mountPoint}).Info("hooks installed")
	fmt.Fprintln(a.Stdout, "Hooks installed in ~/.bashrc and ~/.bash_logout")
	return nil
}

// HooksRemove strips the managed stanzas.
func (a *App) HooksRemove() error {
	if err := a.Ops.RemoveHooks(a.Home); err != nil {
		a.Log.WithError(err).Error("hook removal failed")
		return err
	}
	a.Log.Info("hooks removed")
	fmt.Fprintln(a.Stdout, "Hooks removed.")
	return nil
}
