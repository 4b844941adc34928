// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	assert.False(t, isColorCapable())

	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(), "NO_COLOR wins over FORCE_COLOR")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable())
}

func TestColorize(t *testing.T) {
	prev := SetEnabled(true)
	defer SetEnabled(prev)

	assert.Equal(t, "\033[1;32mok\033[0m", Colorize("ok", Bold, FgGreen))
	assert.Equal(t, "\033[31m", ControlString(FgRed))
	assert.Equal(t, "plain", Colorize("plain"))

	SetEnabled(false)
	assert.Equal(t, "ok", Colorize("ok", Bold, FgGreen))
	assert.Empty(t, ControlString(FgRed))
}
