// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides a file-backed debug log. The TUI owns the
// terminal, so nothing may write to stdout or stderr while it runs.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
	debug  bool
)

// Setup opens the debug log file. When path is empty, logging is disabled
// and all calls become no-ops.
func Setup(path string, debugEnabled bool) error {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
		logger = nil
	}

	debug = debugEnabled
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	file = f
	logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	logger = nil
	return err
}

// SetOutput redirects logging to an arbitrary writer. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
	debug = true
}

// Errorf logs an error-level line.
func Errorf(format string, args ...any) {
	logf("ERROR", format, args...)
}

// Warnf logs a warning-level line.
func Warnf(format string, args ...any) {
	logf("WARN", format, args...)
}

// Infof logs an info-level line.
func Infof(format string, args ...any) {
	logf("INFO", format, args...)
}

// Debugf logs a debug-level line when debug logging is enabled.
func Debugf(format string, args ...any) {
	mu.Lock()
	enabled := debug
	mu.Unlock()
	if !enabled {
		return
	}
	logf("DEBUG", format, args...)
}

func logf(level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return
	}
	logger.Printf(level+" "+format, args...)
}
