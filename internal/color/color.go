// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Code is an SGR parameter.
type Code int

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	csi   = "\033["
	sgr   = "m"
	reset = "\033[0m"
)

// Text attributes.
const (
	Reset Code = iota
	Bold
	Faint
	Italic
	Underline
)

// Foreground colours.
const (
	FgBlack Code = iota + 30
	FgRed
	FgGreen
	FgYellow
	FgBlue
	FgMagenta
	FgCyan
	FgWhite
)

// Hi-intensity foreground colours.
const (
	FgHiBlack Code = iota + 90
	FgHiRed
	FgHiGreen
	FgHiYellow
	FgHiBlue
	FgHiMagenta
	FgHiCyan
	FgHiWhite
)

var enabled atomic.Bool

func init() {
	enabled.Store(isColorCapable())
}

// Enabled reports whether colour output is on.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides terminal detection. It returns the previous value so tests can restore it.
func SetEnabled(on bool) bool {
	return enabled.Swap(on)
}

// ControlString returns the escape sequence for the codes, or "" when colour is off.
func ControlString(codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return ""
	}

	return sequence(codes)
}

// Colorize wraps str in the codes and a trailing reset.
func Colorize(str string, codes ...Code) string {
	if !Enabled() {
		return str
	}

	return Wrap(str, codes...)
}

// Wrap is Colorize without the Enabled check, for writers that make their own decision.
func Wrap(str string, codes ...Code) string {
	if len(codes) == 0 {
		return str
	}

	var sb strings.Builder

	sb.Grow(len(str) + len(reset) + 4*len(codes) + len(csi))
	sb.WriteString(sequence(codes))
	sb.WriteString(str)
	sb.WriteString(reset)

	return sb.String()
}

func sequence(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}

	return csi + strings.Join(parts, ";") + sgr
}

func isColorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
