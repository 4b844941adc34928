// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader splits a child process's diagnostic stream into lines as chunks
// arrive. Each line goes to a callback and into a bounded tail kept for failure reports.
// Both '\r' and '\n' terminate a line, since encoders redraw their status line with '\r'.
package teereader
