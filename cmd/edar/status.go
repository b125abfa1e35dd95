// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anjaustin/edar/pkg/edar"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show the state of open encrypted drives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return app.Status(name)
		},
	}
}

// Status reports mapping and mount state for one mapping, or for every open
// mapping carrying the configured prefix.
func (a *App) Status(name string) error {
	var names []string
	if name != "" {
		names = []string{name}
	} else {
		var err error
		names, err = a.Ops.ListMappings(a.Config.MapperPrefix)
		if err != nil {
			return err
		}
	}

	if len(names) == 0 {
		fmt.Fprintln(a.Stdout, "No open encrypted drives.")
		return nil
	}

	for _, n := range names {
		a.printMappingStatus(n)
	}
	return nil
}

func (a *App) printMappingStatus(name string) {
	devicePath := "/dev/mapper/" + name

	if !a.Ops.IsUnlocked(name) {
		fmt.Fprintf(a.Stdout, "%s: locked\n", name)
		return
	}

	mountPoint, mounted, err := a.Ops.MountPointForDevice(devicePath)
	if err != nil || !mounted {
		fmt.Fprintf(a.Stdout, "%s: unlocked, not mounted\n", name)
		return
	}

	usage, err := a.Ops.Usage(mountPoint)
	if err != nil {
		fmt.Fprintf(a.Stdout, "%s: mounted at %s\n", name, mountPoint)
		return
	}

	fmt.Fprintf(a.Stdout, "%s: mounted at %s (%s used of %s, %.1f%%)\n",
		name, mountPoint,
		edar.FormatBytes(int64(usage.Used)),   // #nosec G115 -- usage fits in int64
		edar.FormatBytes(int64(usage.Total)),  // #nosec G115 -- usage fits in int64
		usage.UsedPercent)
}
