// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information
const Version = "3.0.1"

const banner = `
╔══════════════════════════════════════════════════════════════╗
║                EDAR — Encrypted Data At Rest                 ║
║          Guided LUKS encryption for external drives          ║
╚══════════════════════════════════════════════════════════════╝
`

func newRootCmd(app *App) *cobra.Command {
	var logDir string

	root := &cobra.Command{
		Use:   "edar",
		Short: "Guided LUKS encryption for external drives",
		Long: `edar walks you through encrypting an external drive with LUKS:
it checks the required system tools, lets you pick a drive, formats it with
cryptsetup, creates a filesystem, mounts it, and can wire automatic
unlock/lock into your shell login and logout files.

All encryption work is delegated to cryptsetup and mkfs; edar only drives
them.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init(logDir)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&logDir, "log-dir", "l", "", "directory for daily log files")
	root.Flags().BoolP("version", "v", false, "print the version and exit")

	root.AddCommand(
		newSetupCmd(app),
		newDevicesCmd(app),
		newUnlockCmd(app),
		newLockCmd(app),
		newStatusCmd(app),
		newHooksCmd(app),
	)

	return root
}

func main() {
	app := NewApp()
	if err := newRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
