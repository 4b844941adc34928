// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import "sync"

// LineWriter is an io.Writer that tees each complete line to a callback and a Tail.
// Write never fails and is safe for concurrent use.
type LineWriter struct {
	mu       sync.Mutex
	splitter LineSplitter
	tail     *Tail
	onLine   func(string)
	closed   bool
}

// NewLineWriter returns a writer keeping tailLines lines. onLine may be nil.
func NewLineWriter(tailLines int, onLine func(string)) *LineWriter {
	return &LineWriter{
		tail:   NewTail(tailLines),
		onLine: onLine,
	}
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.splitter.Feed(p, w.emit)
	}

	return len(p), nil
}

// Close flushes the residual partial line. Later writes are discarded.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.splitter.Flush(w.emit)
		w.closed = true
	}

	return nil
}

// Tail returns a copy of the retained lines, oldest first.
func (w *LineWriter) Tail() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.tail.Lines()
}

// LastLine returns the newest complete line, truncated to maxLength when maxLength > 3.
func (w *LineWriter) LastLine(maxLength int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	last := w.tail.Last()
	if maxLength > 3 && len(last) > maxLength {
		last = last[:maxLength-3] + "..."
	}

	return last
}

func (w *LineWriter) emit(line string) {
	w.tail.Add(line)

	if w.onLine != nil {
		w.onLine(line)
	}
}
