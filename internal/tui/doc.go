// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a real-time terminal user interface for a running batch.
// It lists every task with a status icon, a progress bar, the encoding speed,
// a per-task ETA and the last diagnostic line, under a header with the batch
// counters and the batch ETA.
//
// Events reach the model through a Reporter that forwards them to the bubbletea
// program. Pressing q or ctrl+c while the batch runs requests a stop; once the
// batch has finished, q leaves the interface.
package tui
