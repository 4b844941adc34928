// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package orchestrator runs a batch of tasks with bounded concurrency.
//
// A BatchContext owns the per-batch registry, stats, cancellation controller, estimator,
// limiter and reporter. An Orchestrator schedules tasks in submission order, maps each
// process result onto the stats and the event stream, and builds a Report when every
// scheduled task has returned.
package orchestrator
