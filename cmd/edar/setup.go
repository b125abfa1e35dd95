// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anjaustin/edar/pkg/edar"
)

// SetupOptions carries the setup command's flags. Anything unset is prompted
// for or taken from config defaults.
type SetupOptions struct {
	Filesystem string
	Label      string
	MountRoot  string
}

func newSetupCmd(app *App) *cobra.Command {
	opts := SetupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactively encrypt, format and mount a drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Filesystem, "filesystem", "f", "", "filesystem to create (ext4, xfs, btrfs, f2fs, vfat)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label for the new drive")
	cmd.Flags().StringVar(&opts.MountRoot, "mount-root", "", "directory under which the drive is mounted")

	return cmd
}

// Setup runs the guided provisioning flow: dependency check, drive
// selection, label/filesystem choice, then luksFormat → open → mkfs → mount,
// stopping at the first failure. Every destructive step sits behind a
// confirmation gate.
func (a *App) Setup(opts SetupOptions) error {
	fmt.Fprint(a.Stdout, banner)

	fstype, err := a.chooseFilesystem(opts.Filesystem)
	if err != nil {
		return err
	}

	if err := a.ensureTools(fstype); err != nil {
		return err
	}

	drive, err := a.selectDrive()
	if err != nil {
		return err
	}

	label, err := a.chooseLabel(opts.Label)
	if err != nil {
		return err
	}

	mountRoot := opts.MountRoot
	if mountRoot == "" {
		mountRoot = a.Config.MountRoot
	}
	mountPoint := filepath.Join(mountRoot, label)
	name := edar.MapperName(a.Config.MapperPrefix, label)

	hasLuks, err := a.Ops.IsLuks(drive.Path)
	if err != nil {
		a.Log.WithError(err).Error("failed to probe for existing LUKS header")
		return err
	}

	fmt.Fprintf(a.Stdout, "\nDevice:      %s\n", drive.Path)
	fmt.Fprintf(a.Stdout, "Model:       %s\n", drive.Model)
	fmt.Fprintf(a.Stdout, "Size:        %s\n", edar.FormatBytes(drive.SizeBytes))
	fmt.Fprintf(a.Stdout, "Label:       %s\n", label)
	fmt.Fprintf(a.Stdout, "Filesystem:  %s\n", fstype)
	fmt.Fprintf(a.Stdout, "Mapping:     /dev/mapper/%s\n", name)
	fmt.Fprintf(a.Stdout, "Mountpoint:  %s\n", mountPoint)
	if hasLuks {
		fmt.Fprintf(a.Stdout, "\nNote: %s already contains a LUKS container. It will be overwritten.\n", drive.Path)
	}

	fmt.Fprintf(a.Stdout, "\n*** WARNING: this will PERMANENTLY DESTROY all data on %s ***\n", drive.Path)
	if !a.confirm("Continue? (y/n): ") {
		a.Log.Info("setup cancelled at format confirmation")
		return ErrCancelled
	}

	passphrase, err := a.promptPassphrase("Enter passphrase for the new drive: ", true)
	if err != nil {
		return err
	}
	defer edar.ClearBytes(passphrase)

	a.Log.WithFields(map[string]interface{}{
		"device": drive.Path, "label": label, "filesystem": fstype,
	}).Info("starting setup")

	fmt.Fprintln(a.Stdout, "\nFormatting with LUKS (this may take a few seconds)...")
	if err := a.Ops.LuksFormat(drive.Path, passphrase); err != nil {
		a.Log.WithError(err).Error("luksFormat failed")
		return err
	}
	fmt.Fprintln(a.Stdout, "LUKS container created")

	fmt.Fprintln(a.Stdout, "\nOpening the container...")
	if err := a.Ops.LuksOpen(drive.Path, name, passphrase); err != nil {
		a.Log.WithError(err).Error("luksOpen failed")
		return err
	}
	fmt.Fprintf(a.Stdout, "Mapped at /dev/mapper/%s\n", name)

	fmt.Fprintf(a.Stdout, "\nCreating %s filesystem...\n", fstype)
	if err := a.Ops.MakeFilesystem(name, fstype, label); err != nil {
		a.Log.WithError(err).Error("mkfs failed")
		return err
	}
	fmt.Fprintln(a.Stdout, "Filesystem created")

	if err := a.Ops.EnsureMountPoint(mountPoint); err != nil {
		a.Log.WithError(err).Error("failed to create mountpoint")
		return err
	}
	devicePath, err := a.Ops.WaitForMapping(name)
	if err != nil {
		a.Log.WithError(err).Error("mapped device did not appear")
		return err
	}
	fmt.Fprintf(a.Stdout, "\nMounting at %s...\n", mountPoint)
	if err := a.Ops.Mount(edar.MountOptions{
		DevicePath: devicePath,
		MountPoint: mountPoint,
		FSType:     string(fstype),
	}); err != nil {
		a.Log.WithError(err).Error("mount failed")
		return err
	}

	a.Log.WithField("mountpoint", mountPoint).Info("setup complete")

	fmt.Fprintln(a.Stdout, "\nDrive ready!")
	fmt.Fprintf(a.Stdout, "\nYour encrypted drive is mounted at: %s\n", mountPoint)

	if a.confirm("\nInstall shell hooks to unlock at login and lock at logout? (y/n): ") {
		if err := a.Ops.InstallHooks(edar.HookOptions{
			Home:       a.Home,
			Device:     drive.Path,
			MountPoint: mountPoint,
			MapperName: name,
		}); err != nil {
			a.Log.WithError(err).Error("hook installation failed")
			return err
		}
		fmt.Fprintln(a.Stdout, "Hooks installed in ~/.bashrc and ~/.bash_logout")
	}

	fmt.Fprintln(a.Stdout, "\nLater:")
	fmt.Fprintf(a.Stdout, "  Lock:   edar lock %s\n", name)
	fmt.Fprintf(a.Stdout, "  Unlock: edar unlock %s %s\n", drive.Path, mountPoint)

	return nil
}

// chooseFilesystem resolves the filesystem type from the flag or config
// default, prompting only when the configured default is somehow unusable.
func (a *App) chooseFilesystem(flagValue string) (edar.FilesystemType, error) {
	name := flagValue
	if name == "" {
		name = a.Config.Filesystem
	}
	fstype := edar.FilesystemType(strings.ToLower(name))
	if !edar.IsFilesystemSupported(fstype) {
		return "", fmt.Errorf("unsupported filesystem %q (supported: %s)", name, supportedFilesystemList())
	}
	return fstype, nil
}

func supportedFilesystemList() string {
	var names []string
	for _, fs := range edar.SupportedFilesystems() {
		names = append(names, string(fs))
	}
	return strings.Join(names, ", ")
}

// ensureTools checks the external binaries the run needs and offers to
// install missing ones, behind a confirmation gate.
func (a *App) ensureTools(fstype edar.FilesystemType) error {
	missing, err := a.Ops.MissingTools(fstype)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	fmt.Fprintf(a.Stdout, "Missing required tools: %s\n", strings.Join(missing, ", "))
	if !a.confirm("Install them now with apt-get? (y/n): ") {
		a.Log.Info("setup cancelled: tool installation declined")
		return ErrCancelled
	}

	fmt.Fprintln(a.Stdout, "Installing...")
	if err := a.Ops.InstallTools(missing); err != nil {
		a.Log.WithError(err).Error("tool installation failed")
		return err
	}
	fmt.Fprintln(a.Stdout, "Tools installed")
	return nil
}

// selectDrive lists candidate drives and reads an index from the user.
// A non-numeric or out-of-range answer aborts the run.
func (a *App) selectDrive() (edar.Drive, error) {
	drives, err := a.Ops.ListCandidateDrives()
	if err != nil {
		a.Log.WithError(err).Error("drive enumeration failed")
		return edar.Drive{}, err
	}
	if len(drives) == 0 {
		return edar.Drive{}, errors.New("no candidate drives found")
	}

	fmt.Fprintln(a.Stdout, "\nAvailable drives:")
	for i, d := range drives {
		marker := ""
		if d.Mounted() {
			marker = "  [mounted: " + strings.Join(d.MountPoints, ", ") + "]"
		}
		fmt.Fprintf(a.Stdout, "  %d. %-12s %8s  %s%s\n", i+1, d.Path, edar.FormatBytes(d.SizeBytes), d.Model, marker)
	}

	line, err := a.readLine(fmt.Sprintf("\nSelect a drive [1-%d]: ", len(drives)))
	if err != nil {
		return edar.Drive{}, fmt.Errorf("failed to read selection: %w", err)
	}
	index, err := strconv.Atoi(line)
	if err != nil || index < 1 || index > len(drives) {
		a.Log.WithField("input", line).Error("invalid drive selection")
		return edar.Drive{}, fmt.Errorf("invalid drive selection: %q", line)
	}

	drive := drives[index-1]
	if drive.Mounted() {
		return edar.Drive{}, fmt.Errorf("%s is mounted (%s): unmount it first", drive.Path, strings.Join(drive.MountPoints, ", "))
	}
	return drive, nil
}

// chooseLabel takes the label from the flag or prompts for one.
func (a *App) chooseLabel(flagValue string) (string, error) {
	label := flagValue
	if label == "" {
		var err error
		label, err = a.readLine("Enter a label for the drive: ")
		if err != nil {
			return "", fmt.Errorf("failed to read label: %w", err)
		}
	}
	if err := edar.ValidateLabel(label); err != nil {
		a.Log.WithField("label", label).Error("invalid label")
		return "", err
	}
	return label, nil
}
