// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) OnEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, e)
}

func (c *collector) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}

	return out
}

func TestChannelReporter_DeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 8)
	c := &collector{}
	cr.Listen(c)

	cr.Report(Event{TaskID: "a", Type: EventStarted})
	cr.Report(Event{TaskID: "a", Type: EventProgress})
	cr.Report(Event{TaskID: "a", Type: EventCompleted})
	cr.Close()

	assert.Equal(t, []EventType{EventStarted, EventProgress, EventCompleted}, c.types())
}

func TestChannelReporter_ReportAfterCloseIsIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)
	c := &collector{}
	cr.Listen(c)
	cr.Close()

	assert.NotPanics(t, func() {
		cr.Report(Event{TaskID: "late", Type: EventCompleted})
		cr.Close()
	})
	assert.Empty(t, c.types())
}

func TestChannelReporter_DropsProgressWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)

	// Nobody listens yet: the first event fills the buffer and the progress events are dropped.
	cr.Report(Event{TaskID: "a", Type: EventStarted})

	for range 10 {
		cr.Report(Event{TaskID: "a", Type: EventProgress})
		cr.Report(Event{TaskID: "a", Type: EventOutput})
	}

	c := &collector{}
	cr.Listen(c)

	cr.Report(Event{TaskID: "a", Type: EventCompleted})
	cr.Close()

	assert.Equal(t, []EventType{EventStarted, EventCompleted}, c.types())
}

func TestChannelReporter_LifecycleEventUnblocksOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cr := NewChannelReporter(ctx, 1)

	cr.Report(Event{TaskID: "a", Type: EventStarted})

	done := make(chan struct{})

	go func() {
		defer close(done)
		cr.Report(Event{TaskID: "a", Type: EventFailed})
	}()

	cancel()
	<-done

	events := cr.Events()
	require.Len(t, events, 1)

	cr.Close()
}
