// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/matt-FFFFFF/mediabatch/internal/teereader"
)

const (
	// DefaultTailLines is how many diagnostic lines are kept per task.
	DefaultTailLines = 20
	// DefaultReadTimeout bounds each wait for output, so a silent child cannot hide a stop request.
	DefaultReadTimeout = 2 * time.Second
	// DefaultReadBufferSize is the chunk size read from the diagnostic pipe.
	DefaultReadBufferSize = 4 * 1024
	// DefaultDrainTimeout bounds reading leftover output after the child exits.
	DefaultDrainTimeout = time.Second

	chunkQueueLen = 16
)

// Command is one process invocation. Args[0] is the executable.
type Command struct {
	ID         string
	Label      string
	Args       []string
	Dir        string
	Env        []string // nil inherits the current environment
	OutputPath string
}

// Options tunes a Runner. Zero values take the defaults above.
type Options struct {
	TailLines      int
	ReadTimeout    time.Duration
	ReadBufferSize int
	DrainTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.TailLines <= 0 {
		o.TailLines = DefaultTailLines
	}

	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}

	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultReadBufferSize
	}

	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}

	return o
}

// Runner spawns commands and registers them in a shared Registry while they run.
type Runner struct {
	registry *Registry
	opts     Options
}

// NewRunner returns a runner registering its processes in registry.
func NewRunner(registry *Registry, opts Options) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}

	return &Runner{
		registry: registry,
		opts:     opts.withDefaults(),
	}
}

// Registry returns the registry the runner reports to.
func (r *Runner) Registry() *Registry {
	return r.registry
}

type waitResult struct {
	state *os.ProcessState
	err   error
}

// Run executes cmd and blocks until it has exited.
//
// ctx is the stop signal: once it is done the child's process tree is killed and the
// Result is OutcomeCancelled. Each complete stderr line is passed to onLine, which
// may be nil, from the calling goroutine.
func (r *Runner) Run(ctx context.Context, cmd Command, onLine func(string)) *Result {
	logger := ctxlog.Logger(ctx).With(ctxlog.TaskKey, cmd.ID)
	start := time.Now()

	res := &Result{
		TaskID:     cmd.ID,
		Label:      cmd.Label,
		OutputPath: cmd.OutputPath,
		ExitCode:   NoExitCode,
	}

	defer func() {
		res.Duration = time.Since(start)
	}()

	if ctx.Err() != nil {
		res.Outcome = OutcomeCancelled
		res.Err = ErrCancelled

		return res
	}

	ps, stderr, err := r.spawn(cmd)
	if err != nil {
		logger.Error("spawn failed", "args", cmd.Args, "error", err)

		res.Outcome = OutcomeFailure
		res.Err = err

		return res
	}

	res.PID = ps.Pid
	handle := newProcessHandle(ps)

	r.registry.Add(handle)
	defer r.registry.Remove(handle)

	logger.Debug("process started", "pid", ps.Pid, "args", cmd.Args)

	waitCh := make(chan waitResult, 1)

	go func() {
		state, err := ps.Wait()
		handle.markExited(state)
		waitCh <- waitResult{state: state, err: err}
	}()

	chunks := make(chan []byte, chunkQueueLen)

	go readChunks(stderr, r.opts.ReadBufferSize, chunks)

	lines := teereader.NewLineWriter(r.opts.TailLines, onLine)
	ticker := time.NewTicker(r.opts.ReadTimeout)

	defer ticker.Stop()

	var (
		wait       *waitResult
		drain      <-chan time.Time
		stop       = ctx.Done()
		chunksOpen = true
		lastOutput = time.Now()
	)

	for chunksOpen || wait == nil {
		select {
		case b, ok := <-chunks:
			if !ok {
				chunksOpen = false
				chunks = nil

				continue
			}

			lastOutput = time.Now()
			_, _ = lines.Write(b)

		case w := <-waitCh:
			wait = &w
			waitCh = nil

			if chunksOpen {
				drain = time.After(r.opts.DrainTimeout)
			}

		case <-drain:
			// A descendant still holds the pipe open; stop reading.
			drain = nil
			_ = stderr.Close()

		case <-stop:
			stop = nil

			logger.Info("stop requested, killing process tree", "pid", ps.Pid)
			r.kill(ctx, handle)

		case <-ticker.C:
			if ctx.Err() != nil && !handle.Exited() {
				r.kill(ctx, handle)
				continue
			}

			if idle := time.Since(lastOutput); idle >= r.opts.ReadTimeout && wait == nil {
				logger.Debug("no output from process", "pid", ps.Pid, "idle", idle.Round(time.Second))
			}
		}
	}

	_ = stderr.Close()
	_ = lines.Close()

	res.Tail = lines.Tail()

	if wait.state != nil {
		res.ExitCode = wait.state.ExitCode()
	}

	switch {
	case wait.err == nil && res.ExitCode == 0:
		res.Outcome = OutcomeSuccess
		res.Tail = nil
	case handle.Killed() || ctx.Err() != nil:
		res.Outcome = OutcomeCancelled
		res.Err = ErrCancelled
	case wait.err != nil:
		res.Outcome = OutcomeFailure
		res.Err = errors.Join(ErrWait, wait.err)
	default:
		res.Outcome = OutcomeFailure
		res.Err = fmt.Errorf("%w: exit code %d", ErrChildExit, res.ExitCode)
	}

	logger.Debug("process finished", "pid", ps.Pid, "outcome", res.Outcome.String(), "exitCode", res.ExitCode)

	return res
}

func (r *Runner) spawn(cmd Command) (*os.Process, *os.File, error) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "" {
		return nil, nil, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	path, err := exec.LookPath(cmd.Args[0])
	if err != nil {
		return nil, nil, errors.Join(ErrSpawn, err)
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, nil, errors.Join(ErrSpawn, err)
	}
	defer devNull.Close() //nolint:errcheck

	rErr, wErr, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Join(ErrSpawn, ErrCreatePipe, err)
	}

	ps, err := os.StartProcess(path, cmd.Args, &os.ProcAttr{
		Dir:   cmd.Dir,
		Env:   cmd.Env,
		Files: []*os.File{devNull, devNull, wErr},
		Sys:   sysProcAttr(),
	})

	// The child has its own copy; ours must go so EOF arrives when the child exits.
	_ = wErr.Close()

	if err != nil {
		_ = rErr.Close()
		return nil, nil, errors.Join(ErrSpawn, err)
	}

	return ps, rErr, nil
}

func (r *Runner) kill(ctx context.Context, h *ProcessHandle) {
	if err := h.Kill(); err != nil {
		ctxlog.Warn(ctx, "process kill error", "pid", h.PID(), "error", err)
	}
}

// readChunks copies r into ch in fresh slices and closes ch at EOF or on error.
func readChunks(r io.Reader, size int, ch chan<- []byte) {
	defer close(ch)

	buf := make([]byte, size)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			ch <- chunk
		}

		if err != nil {
			return
		}
	}
}
