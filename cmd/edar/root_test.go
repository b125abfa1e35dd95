// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	app, _, _ := newTestApp("")
	root := newRootCmd(app)

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execRoot(t, "--version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output %q does not contain %q", out, Version)
	}
}

func TestRootCmd_VersionShorthand(t *testing.T) {
	out, err := execRoot(t, "-v")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("-v output %q does not contain %q", out, Version)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execRoot(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, sub := range []string{"setup", "devices", "unlock", "lock", "status", "hooks"} {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing %q", sub)
		}
	}
	if !strings.Contains(out, "--log-dir") {
		t.Error("help output missing the --log-dir flag")
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := execRoot(t, "frobnicate")
	if err == nil {
		t.Fatal("Execute() succeeded for an unknown command")
	}
}
