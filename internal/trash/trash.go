// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package trash moves files into a recoverable trash directory laid out like the
// freedesktop.org trash: files/ holds the data, info/ holds a .trashinfo record
// with the original path and deletion time.
package trash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

const (
	// Attempts is how many times a move is tried before giving up.
	Attempts = 3

	infoTimeFormat = "2006-01-02T15:04:05"
)

var (
	// ErrMove is returned when a file could not be moved into the trash.
	ErrMove = errors.New("could not move file to trash")
	// ErrDelete is returned when a file could not be deleted.
	ErrDelete = errors.New("could not delete file")
)

// Trash is a trash directory on fs.
type Trash struct {
	fs    afero.Fs
	root  string
	now   func() time.Time
	pause time.Duration
}

// New returns a trash rooted at root. An empty root means DefaultDir.
func New(fs afero.Fs, root string) (*Trash, error) {
	if root == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}

		root = d
	}

	return &Trash{
		fs:    fs,
		root:  root,
		now:   time.Now,
		pause: 200 * time.Millisecond,
	}, nil
}

// Root returns the trash directory.
func (t *Trash) Root() string {
	return t.root
}

// DefaultDir is $XDG_DATA_HOME/Trash, falling back to ~/.local/share/Trash.
// On Windows it is %LOCALAPPDATA%\mediabatch\Trash.
func DefaultDir() (string, error) {
	if runtime.GOOS == "windows" {
		if d := os.Getenv("LOCALAPPDATA"); d != "" {
			return filepath.Join(d, "mediabatch", "Trash"), nil
		}
	}

	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "Trash"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating trash directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// Remove moves path into the trash and returns where it went.
func (t *Trash) Remove(path string) (string, error) {
	var lastErr error

	for attempt := range Attempts {
		if attempt > 0 {
			time.Sleep(t.pause)
		}

		dest, err := t.move(path)
		if err == nil {
			return dest, nil
		}

		lastErr = err
	}

	return "", fmt.Errorf("%w: %s after %d attempts: %w", ErrMove, path, Attempts, lastErr)
}

func (t *Trash) move(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	filesDir := filepath.Join(t.root, "files")
	infoDir := filepath.Join(t.root, "info")

	for _, d := range []string{filesDir, infoDir} {
		if err := t.fs.MkdirAll(d, 0o700); err != nil {
			return "", err
		}
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n", abs, t.now().Format(infoTimeFormat))

	name, infoPath, err := t.reserve(filesDir, infoDir, filepath.Base(abs), info)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(filesDir, name)

	if err := t.rename(abs, dest); err != nil {
		_ = t.fs.Remove(infoPath)
		return "", err
	}

	return dest, nil
}

// reserve claims base, or base.N, by creating its info record exclusively. A name is
// only used when its info record did not exist and nothing sits in files/ under it.
func (t *Trash) reserve(filesDir, infoDir, base, info string) (string, string, error) {
	for i := 0; ; i++ {
		name := base
		if i > 0 {
			name = base + "." + strconv.Itoa(i)
		}

		inFiles, err := afero.Exists(t.fs, filepath.Join(filesDir, name))
		if err != nil {
			return "", "", err
		}

		if inFiles {
			continue
		}

		infoPath := filepath.Join(infoDir, name+".trashinfo")

		f, err := t.fs.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}

		if err != nil {
			return "", "", err
		}

		_, werr := io.WriteString(f, info)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}

		if werr != nil {
			_ = t.fs.Remove(infoPath)
			return "", "", werr
		}

		return name, infoPath, nil
	}
}

// rename falls back to copy and delete when the trash is on another device.
func (t *Trash) rename(src, dst string) error {
	if err := t.fs.Rename(src, dst); err == nil {
		return nil
	}

	in, err := t.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := t.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = t.fs.Remove(dst)

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return t.fs.Remove(src)
}

// Deleter removes files permanently.
type Deleter struct {
	fs afero.Fs
}

// NewDeleter returns a Deleter on fs.
func NewDeleter(fs afero.Fs) *Deleter {
	return &Deleter{fs: fs}
}

// Remove deletes path. The returned destination is always empty.
func (d *Deleter) Remove(path string) (string, error) {
	if err := d.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", errors.Join(ErrDelete, err)
	}

	return "", nil
}
