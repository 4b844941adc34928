// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs one external process per task and reports how it ended.
//
// The Runner streams the child's stderr line by line, keeps a bounded tail for
// diagnostics, and registers the live process in a Registry so a cancellation can
// kill every process tree in flight. Errors never escape as panics or returned
// errors: every path ends in a Result with an Outcome.
package runbatch
