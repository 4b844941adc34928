// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns OS termination signals into calls on the batch.
//
// The broker never touches batch state itself. The first signal of a kind invokes
// the stop callback; a repeat of the same kind invokes the force callback.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New subscribes to sigs (the termination signals when empty) and returns the channel.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 2)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signal broker subscribed", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unsubscribes ch. Watch returns once ch is closed.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
	close(ch)
}
