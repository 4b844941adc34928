// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{
			name: "empty context gives default",
			ctx:  context.Background(),
			want: DefaultLogger,
		},
		{
			name: "nil logger gives default",
			ctx:  New(context.Background(), nil),
			want: DefaultLogger,
		},
		{
			name: "json logger is returned",
			ctx:  New(context.Background(), JSONLogger),
			want: JSONLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, Logger(tt.ctx))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "loud", want: slog.LevelWarn, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownLevel)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrettyHandler_TaskPrefixAndAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug}, WithDestinationWriter(buf)))

	logger.With(TaskKey, "abc123").Info("task finished", "exitCode", 3, "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "INFO  [abc123] task finished")
	assert.Contains(t, out, `"exitCode"`)
	assert.Contains(t, out, `"boom"`)
	assert.NotContains(t, out, `"task"`)
	assert.NotContains(t, out, "\033[", "colour must be off unless requested")
}

func TestPrettyHandler_Groups(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewPrettyHandler(nil, WithDestinationWriter(buf)))

	logger.WithGroup("runner").Warn("slow read", "waited", "2s")

	out := buf.String()
	assert.Contains(t, out, "WARN  slow read")
	assert.Regexp(t, `"runner":\s*\{\s*"waited":\s*"2s"`, out)
}

func TestPrettyHandler_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelWarn}, WithDestinationWriter(buf)))

	logger.Info("hidden")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Error("shown")
	assert.Contains(t, buf.String(), "ERROR shown")
}

func TestNewForTUI(t *testing.T) {
	prev := LevelVar.Level()
	defer LevelVar.Set(prev)

	LevelVar.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	ctx := NewForTUI(context.Background(), buf)

	Info(With(ctx, TaskKey, "t1"), "buffered")
	assert.Contains(t, buf.String(), "[t1] buffered")
}
