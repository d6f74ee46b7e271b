// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// logSetup holds what every logger of one run shares: the level, the
// handler format, the run ID and the optional log file.
type logSetup struct {
	level slog.Level
	json  bool
	run   string
	file  *os.File
}

func openLogging(ro *RootOpts) (*logSetup, error) {
	level, err := parseLevel(ro.LogLevel)
	if err != nil {
		return nil, err
	}
	switch {
	case ro.Verbose:
		level = slog.LevelDebug
	case ro.Quiet:
		level = slog.LevelWarn
	}

	ls := &logSetup{level: level, json: ro.JSONOut, run: uuid.NewString()}
	if ro.LogFile != "" {
		f, err := os.OpenFile(ro.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ls.file = f
	}
	return ls, nil
}

// logger returns a logger writing to w and, if configured, the log file.
func (ls *logSetup) logger(w io.Writer) *slog.Logger {
	if ls.file != nil {
		w = io.MultiWriter(w, ls.file)
	}
	opts := &slog.HandlerOptions{Level: ls.level}
	var h slog.Handler
	if ls.json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("run", ls.run)
}

func (ls *logSetup) Close() error {
	if ls.file == nil {
		return nil
	}
	return ls.file.Close()
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn, error)", s)
	}
	return l, nil
}
