// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps ANSI escape sequences for the plain (non-TUI) console output.
// Colour is on when stdout is a terminal, unless NO_COLOR is set. FORCE_COLOR turns it
// on regardless of the terminal check.
package color
