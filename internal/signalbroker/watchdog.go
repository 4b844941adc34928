// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
)

// Handlers are the callbacks invoked by Watch. Either may be nil.
type Handlers struct {
	// Stop is called for the first signal of each kind.
	Stop func(os.Signal)
	// Force is called when a signal kind repeats. Watch returns after it.
	Force func(os.Signal)
}

// Watch consumes sigCh until it is closed, ctx is done, or a signal repeats.
func Watch(ctx context.Context, sigCh <-chan os.Signal, h Handlers) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "second signal received, forcing exit", "signal", sig.String())

				if h.Force != nil {
					h.Force(sig)
				}

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Info(ctx, "signal received, stopping batch", "signal", sig.String())

			if h.Stop != nil {
				h.Stop(sig)
			}
		}
	}
}
