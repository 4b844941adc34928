// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package orchestrator

import "github.com/matt-FFFFFF/mediabatch/internal/stats"

func summaryWith(errors int, cancelled bool) stats.Summary {
	return stats.Summary{Errors: errors, WasCancelled: cancelled}
}
