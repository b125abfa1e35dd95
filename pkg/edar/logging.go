// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// DebugEnabled reports whether DEBUG=1 is set, which tees log lines to the
// terminal in addition to the daily log file.
func DebugEnabled() bool {
	return os.Getenv("DEBUG") == "1"
}

// DefaultLogDir returns the per-user log directory.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "edar", "logs")
	}
	return filepath.Join(home, ".edar", "logs")
}

// LogFileName returns the daily log file name for a given date.
func LogFileName(t time.Time) string {
	return "edar-" + t.Format("2006-01-02") + ".log"
}

// NewLogger opens (creating if needed) the daily log file under dir and
// returns a logger writing to it, plus the file path. With DEBUG=1 the
// logger also echoes to stderr.
func NewLogger(dir string) (*logrus.Logger, string, error) {
	if dir == "" {
		dir = DefaultLogDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, LogFileName(time.Now()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640) // #nosec G304 -- log path derived from configured directory
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if DebugEnabled() {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetOutput(io.MultiWriter(file, os.Stderr))
	} else {
		logger.SetOutput(file)
	}

	return logger, path, nil
}
