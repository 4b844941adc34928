// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
)

// ErrFetch is returned when a manifest cannot be retrieved.
var ErrFetch = errors.New("could not fetch manifest")

const (
	getterPathSeparator = "//"
	getterRefSeparator  = "?"
	minimumGetterParts  = 3 // scheme, host and path
)

// Load fetches src and decodes it. src is a local path or any go-getter URL.
func Load(ctx context.Context, src string) (*Manifest, error) {
	data, err := Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	m, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if info, statErr := os.Stat(src); statErr == nil && !info.IsDir() {
		if abs, absErr := filepath.Abs(src); absErr == nil {
			m.BaseDir = filepath.Dir(abs)
		}
	}

	return m, nil
}

// Fetch retrieves the bytes of src with go-getter. The download directory is removed
// before returning.
func Fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrFetch)
	}

	tmpDir, err := os.MkdirTemp("", "mediabatch-getter-*")
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     src,
		Dst:     filepath.Join(tmpDir, "m"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// Remote sources are fetched as a directory; the file is read from it afterwards.
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrFetch, err)
		}

		var dirURL string

		dirURL, fileName = splitGetterURL(src)
		if dirURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL: %s", ErrFetch, src)
		}

		req.Src = dirURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(src)
		fileName = filepath.Base(src)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	return data, nil
}

// splitGetterURL returns the go-getter URL of the directory holding the file, and the
// file name. A ?ref= query is carried over to the directory URL.
func splitGetterURL(url string) (string, string) {
	parts := strings.Split(url, getterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	var query string
	if before, after, found := strings.Cut(last, getterRefSeparator); found {
		last, query = before, after
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	dir := filepath.Dir(last)

	if dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	dirURL := strings.Join(parts, getterPathSeparator)
	if query != "" {
		dirURL += getterRefSeparator + query
	}

	return dirURL, fileName
}
