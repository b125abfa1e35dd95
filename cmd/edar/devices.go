// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anjaustin/edar/pkg/edar"
)

func newDevicesCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List block devices that can be encrypted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Devices(all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include the system drive")

	return cmd
}

// Devices prints the drive listing the setup command selects from.
func (a *App) Devices(all bool) error {
	var (
		drives []edar.Drive
		err    error
	)
	if all {
		drives, err = a.Ops.ListDrives()
	} else {
		drives, err = a.Ops.ListCandidateDrives()
	}
	if err != nil {
		a.Log.WithError(err).Error("drive enumeration failed")
		return err
	}

	if len(drives) == 0 {
		fmt.Fprintln(a.Stdout, "No drives found.")
		return nil
	}

	for i, d := range drives {
		var notes []string
		if d.Removable {
			notes = append(notes, "removable")
		}
		if d.System() {
			notes = append(notes, "system")
		}
		if d.Mounted() {
			notes = append(notes, "mounted: "+strings.Join(d.MountPoints, ", "))
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = "  [" + strings.Join(notes, "; ") + "]"
		}
		fmt.Fprintf(a.Stdout, "%d. %-12s %8s  %s%s\n", i+1, d.Path, edar.FormatBytes(d.SizeBytes), d.Model, suffix)
	}

	return nil
}
