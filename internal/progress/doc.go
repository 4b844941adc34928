// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries live task events from the orchestrator to the displays,
// and parses encoder status lines into progress samples.
package progress
