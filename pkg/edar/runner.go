// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ExitError reports a system command that started but exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Output []byte
}

func (e *ExitError) Error() string {
	out := bytes.TrimSpace(e.Output)
	if len(out) == 0 {
		return fmt.Sprintf("%s exited with status %d", e.Cmd, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Cmd, e.Code, out)
}

// CommandRunner abstracts execution of external system utilities so the
// cryptsetup/mkfs/apt-get wrappers can be exercised without a real system.
type CommandRunner interface {
	// Run executes name with args, feeding stdin when non-nil, and returns
	// the combined output. A non-zero exit is returned as *ExitError.
	Run(stdin []byte, name string, args ...string) ([]byte, error)

	// LookPath reports the full path of an executable, or an error if it
	// is not installed.
	LookPath(file string) (string, error)
}

type systemRunner struct{}

func (systemRunner) Run(stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...) // #nosec G204 -- argv built from validated options
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return out, &ExitError{Cmd: name, Code: ee.ExitCode(), Output: out}
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (systemRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// runner is swapped out by tests.
var runner CommandRunner = systemRunner{}
