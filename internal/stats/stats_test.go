// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/trash"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRemover struct{}

func (failingRemover) Remove(string) (string, error) { return "", errors.New("locked") }

func TestCollector_Counters(t *testing.T) {
	c := New()
	c.SetTotal(10)
	c.SetTotal(99)

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			c.Inc(Processed)
			c.Inc(Errors)
		}()
	}

	wg.Wait()
	c.Inc(Skipped)
	c.Inc(Counter(42))

	s := c.Summary()
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 50, s.Processed)
	assert.Equal(t, 50, s.Errors)
	assert.Equal(t, 1, s.Skipped)
	assert.Zero(t, s.Cancelled)
	assert.False(t, s.WasCancelled)

	c.MarkCancelled()
	assert.True(t, c.Summary().WasCancelled)
}

func TestSummary_PendingAndString(t *testing.T) {
	s := Summary{Total: 5, Processed: 1, Errors: 1, Cancelled: 2, Elapsed: 90 * time.Second}

	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, "total=5 processed=1 skipped=0 errors=1 cancelled=2 pending=1 elapsed=1m30s", s.String())
}

func TestCollector_Elapsed(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return now }))

	now = now.Add(42 * time.Second)
	assert.Equal(t, 42*time.Second, c.Summary().Elapsed)
}

func TestCollector_RecordPartialOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	defer gostub.Stub(&FS, fs).Reset()

	require.NoError(t, afero.WriteFile(fs, "/out/a.mp4", []byte("x"), 0o644))

	c := New()

	assert.True(t, c.RecordPartialOutput("/out/a.mp4"))
	assert.False(t, c.RecordPartialOutput("/out/a.mp4"), "duplicates are ignored")
	assert.False(t, c.RecordPartialOutput("/out/missing.mp4"))
	assert.False(t, c.RecordPartialOutput(""))
	assert.Equal(t, []string{"/out/a.mp4"}, c.PendingCleanup())
}

func TestCollector_CleanupMovesToTrash(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.mp4", []byte("x"), 0o644))

	tr, err := trash.New(fs, "/trash")
	require.NoError(t, err)

	c := New(WithFs(fs), WithRemover(tr))
	require.True(t, c.RecordPartialOutput("/out/a.mp4"))

	results := c.CleanupPartialOutputs(context.Background())
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "/trash/files/a.mp4", results[0].Destination)

	exists, _ := afero.Exists(fs, "/out/a.mp4")
	assert.False(t, exists)

	assert.Empty(t, c.PendingCleanup())
	assert.Nil(t, c.CleanupPartialOutputs(context.Background()), "queue is drained")
}

func TestCollector_CleanupPartialOutputTakesOnlyItsPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.mp4", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/out/b.mp4", []byte("b"), 0o644))

	tr, err := trash.New(fs, "/trash")
	require.NoError(t, err)

	c := New(WithFs(fs), WithRemover(tr))
	require.True(t, c.RecordPartialOutput("/out/a.mp4"))
	require.True(t, c.RecordPartialOutput("/out/b.mp4"))

	res, ok := c.CleanupPartialOutput(context.Background(), "/out/b.mp4")
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, "/out/b.mp4", res.Path)
	assert.Equal(t, "/trash/files/b.mp4", res.Destination)

	assert.Equal(t, []string{"/out/a.mp4"}, c.PendingCleanup())

	exists, _ := afero.Exists(fs, "/out/a.mp4")
	assert.True(t, exists, "another task's output is untouched")

	_, ok = c.CleanupPartialOutput(context.Background(), "/out/b.mp4")
	assert.False(t, ok, "a path is cleaned up once")
}

func TestCollector_CleanupKeepAndFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.mp4", []byte("x"), 0o644))

	keep := New(WithFs(fs))
	keep.RecordPartialOutput("/out/a.mp4")

	res := keep.CleanupPartialOutputs(context.Background())
	require.Len(t, res, 1)
	require.NoError(t, res[0].Err)
	assert.True(t, res[0].Kept)

	exists, _ := afero.Exists(fs, "/out/a.mp4")
	assert.True(t, exists, "no remover keeps the file")

	failing := New(WithFs(fs), WithRemover(failingRemover{}))
	failing.RecordPartialOutput("/out/a.mp4")

	res = failing.CleanupPartialOutputs(context.Background())
	require.Len(t, res, 1)
	require.Error(t, res[0].Err)
}
