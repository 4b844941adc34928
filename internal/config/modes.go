// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
)

// DisplayMode selects how progress is shown.
type DisplayMode string

// Display modes.
const (
	DisplayQuiet   DisplayMode = "quiet"
	DisplayNormal  DisplayMode = "normal"
	DisplayVerbose DisplayMode = "verbose"
	DisplayTUI     DisplayMode = "tui"
)

// CleanupMode selects what happens to partial outputs.
type CleanupMode string

// Cleanup modes.
const (
	CleanupTrash  CleanupMode = "trash"
	CleanupDelete CleanupMode = "delete"
	CleanupKeep   CleanupMode = "keep"
)

// LogFormat selects the log handler.
type LogFormat string

// Log formats.
const (
	LogPretty LogFormat = "pretty"
	LogJSON   LogFormat = "json"
)

func parseEnum[T ~string](kind, s string, allowed ...T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))

	for _, a := range allowed {
		if v == a {
			return a, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("%w: %s %q, want one of %v", ErrInvalid, kind, s, allowed)
}

// ParseDisplayMode parses a display mode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	return parseEnum("display", s, DisplayQuiet, DisplayNormal, DisplayVerbose, DisplayTUI)
}

// ParseCleanupMode parses a cleanup mode.
func ParseCleanupMode(s string) (CleanupMode, error) {
	return parseEnum("cleanup", s, CleanupTrash, CleanupDelete, CleanupKeep)
}

// ParseLogFormat parses a log format.
func ParseLogFormat(s string) (LogFormat, error) {
	return parseEnum("log_format", s, LogPretty, LogJSON)
}
