// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

// Tail is a ring of the last N lines.
type Tail struct {
	lines []string
	next  int
	full  bool
}

// NewTail returns a tail holding at most n lines. n < 1 is treated as 1.
func NewTail(n int) *Tail {
	if n < 1 {
		n = 1
	}

	return &Tail{lines: make([]string, n)}
}

// Add appends line, evicting the oldest when full.
func (t *Tail) Add(line string) {
	t.lines[t.next] = line
	t.next = (t.next + 1) % len(t.lines)

	if t.next == 0 {
		t.full = true
	}
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	if !t.full {
		return append([]string(nil), t.lines[:t.next]...)
	}

	out := make([]string, 0, len(t.lines))
	out = append(out, t.lines[t.next:]...)

	return append(out, t.lines[:t.next]...)
}

// Last returns the newest line, or "".
func (t *Tail) Last() string {
	if !t.full && t.next == 0 {
		return ""
	}

	return t.lines[(t.next-1+len(t.lines))%len(t.lines)]
}
