// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The level is shared by every logger in the package through LevelVar. It is
// initialised from MEDIABATCH_LOG_LEVEL (DEBUG, INFO, WARN, ERROR; anything else
// means WARN) and can be changed at runtime with SetLevel.
package ctxlog
