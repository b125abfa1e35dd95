// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"

	"github.com/anjaustin/edar/pkg/edar"
)

// ErrCancelled is returned when the user declines a confirmation gate.
// Cancellation exits non-zero like any other aborted run.
var ErrCancelled = errors.New("cancelled by user")

// Operations defines the disk provisioning surface the commands run against.
type Operations interface {
	ListDrives() ([]edar.Drive, error)
	ListCandidateDrives() ([]edar.Drive, error)
	MissingTools(fstype edar.FilesystemType) ([]string, error)
	InstallTools(tools []string) error
	IsLuks(device string) (bool, error)
	LuksFormat(device string, passphrase []byte) error
	LuksOpen(device, name string, passphrase []byte) error
	LuksClose(name string) error
	LuksUUID(device string) (string, error)
	IsUnlocked(name string) bool
	WaitForMapping(name string) (string, error)
	ListMappings(prefix string) ([]string, error)
	MakeFilesystem(name string, fstype edar.FilesystemType, label string) error
	DetectFilesystem(devicePath string) (string, error)
	Mount(opts edar.MountOptions) error
	Unmount(mountPoint string, flags int) error
	IsMounted(mountPoint string) (bool, error)
	MountPointForDevice(devicePath string) (string, bool, error)
	EnsureMountPoint(path string) error
	Usage(path string) (*disk.UsageStat, error)
	InstallHooks(opts edar.HookOptions) error
	RemoveHooks(home string) error
}

// Terminal defines the interface for hidden passphrase input
type Terminal interface {
	ReadPassword(fd int) ([]byte, error)
}

// App carries the wiring for every command: stdio, the operations backend,
// config and logger. Tests inject mocks for all of it.
type App struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Ops      Operations
	Terminal Terminal
	Config   edar.Config
	Log      logrus.FieldLogger
	Home     string

	in         *bufio.Reader
	getStdinFd func() int
}

// DefaultOperations implements Operations using the edar package.
type DefaultOperations struct{}

func (DefaultOperations) ListDrives() ([]edar.Drive, error) { return edar.ListDrives() }

func (DefaultOperations) ListCandidateDrives() ([]edar.Drive, error) {
	return edar.ListCandidateDrives()
}

func (DefaultOperations) MissingTools(fstype edar.FilesystemType) ([]string, error) {
	return edar.MissingTools(fstype)
}

func (DefaultOperations) InstallTools(tools []string) error { return edar.InstallTools(tools) }

func (DefaultOperations) IsLuks(device string) (bool, error) { return edar.IsLuks(device) }

func (DefaultOperations) LuksFormat(device string, passphrase []byte) error {
	return edar.LuksFormat(device, passphrase)
}

func (DefaultOperations) LuksOpen(device, name string, passphrase []byte) error {
	return edar.LuksOpen(device, name, passphrase)
}

func (DefaultOperations) LuksClose(name string) error { return edar.LuksClose(name) }

func (DefaultOperations) LuksUUID(device string) (string, error) { return edar.LuksUUID(device) }

func (DefaultOperations) IsUnlocked(name string) bool { return edar.IsUnlocked(name) }

func (DefaultOperations) WaitForMapping(name string) (string, error) {
	return edar.WaitForMapping(name)
}

func (DefaultOperations) ListMappings(prefix string) ([]string, error) {
	return edar.ListMappings(prefix)
}

func (DefaultOperations) MakeFilesystem(name string, fstype edar.FilesystemType, label string) error {
	return edar.MakeFilesystem(name, fstype, label)
}

func (DefaultOperations) DetectFilesystem(devicePath string) (string, error) {
	return edar.DetectFilesystem(devicePath)
}

func (DefaultOperations) Mount(opts edar.MountOptions) error { return edar.Mount(opts) }

func (DefaultOperations) Unmount(mountPoint string, flags int) error {
	return edar.Unmount(mountPoint, flags)
}

func (DefaultOperations) IsMounted(mountPoint string) (bool, error) {
	return edar.IsMounted(mountPoint)
}

func (DefaultOperations) MountPointForDevice(devicePath string) (string, bool, error) {
	return edar.MountPointForDevice(devicePath)
}

func (DefaultOperations) EnsureMountPoint(path string) error { return edar.EnsureMountPoint(path) }

func (DefaultOperations) Usage(path string) (*disk.UsageStat, error) { return edar.Usage(path) }

func (DefaultOperations) InstallHooks(opts edar.HookOptions) error { return edar.InstallHooks(opts) }

func (DefaultOperations) RemoveHooks(home string) error { return edar.RemoveHooks(home) }

// NewApp creates an App with the real backend. Logging is wired in Init once
// the log directory is known.
func NewApp() *App {
	home, _ := os.UserHomeDir()
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return &App{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Ops:        DefaultOperations{},
		Terminal:   &DefaultTerminal{},
		Config:     edar.DefaultConfig(),
		Log:        discard,
		Home:       home,
		getStdinFd: func() int { return int(os.Stdin.Fd()) },
	}
}

// Init loads the config file and opens the daily log. A --log-dir flag value
// overrides the configured directory.
func (a *App) Init(logDir string) error {
	cfg, err := edar.LoadConfig(edar.DefaultConfigPath())
	if err != nil {
		return err
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}
	a.Config = cfg

	logger, _, err := edar.NewLogger(cfg.LogDir)
	if err != nil {
		return err
	}
	a.Log = logger.WithField("session", uuid.NewString()[:8])
	return nil
}

func (a *App) reader() *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(a.Stdin)
	}
	return a.in
}

// readLine prompts and reads one trimmed line from stdin.
func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Stdout, prompt)
	line, err := a.reader().ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a (y/n) question. Anything but y/yes declines, including a
// closed stdin.
func (a *App) confirm(prompt string) bool {
	line, err := a.readLine(prompt)
	if err != nil {
		return false
	}
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes"
}

// promptPassphrase prompts for a passphrase with hidden input, optionally
// asking for confirmation.
func (a *App) promptPassphrase(prompt string, confirm bool) ([]byte, error) {
	fmt.Fprint(a.Stdout, prompt)

	fd := 0
	if a.getStdinFd != nil {
		fd = a.getStdinFd()
	}

	passphrase, err := a.Terminal.ReadPassword(fd)
	fmt.Fprintln(a.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}

	if err := edar.ValidatePassphrase(passphrase); err != nil {
		return nil, err
	}

	if confirm {
		fmt.Fprint(a.Stdout, "Confirm passphrase: ")
		confirmation, err := a.Terminal.ReadPassword(fd)
		fmt.Fprintln(a.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to read confirmation: %w", err)
		}
		defer edar.ClearBytes(confirmation)

		if string(passphrase) != string(confirmation) {
			return nil, fmt.Errorf("passphrases do not match")
		}
	}

	return passphrase, nil
}
