// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package manifest reads batch manifests and turns them into orchestrator tasks.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/mediabatch/internal/profile"
)

var (
	// ErrDecode is returned when a manifest is not valid YAML or has unknown fields.
	ErrDecode = errors.New("could not decode manifest")
	// ErrInvalid is returned when a manifest decodes but cannot be built.
	ErrInvalid = errors.New("invalid manifest")
)

// Placeholders substituted in command arguments.
const (
	InputPlaceholder  = "${INPUT}"
	OutputPlaceholder = "${OUTPUT}"
)

const (
	defaultOutputDir = "out"
	defaultOutputExt = ".mp4"
)

// VideoExtensions are the file extensions picked up by a source without an explicit list.
var VideoExtensions = []string{".mp4", ".mkv", ".mov", ".avi", ".webm"}

// Manifest is the decoded YAML document.
type Manifest struct {
	Defaults      Defaults   `yaml:"defaults,omitempty"`
	Sources       []Source   `yaml:"sources,omitempty"`
	Tasks         []TaskSpec `yaml:"tasks,omitempty"`
	FFmpegBin     string     `yaml:"ffmpeg_bin,omitempty"`
	FFprobeBin    string     `yaml:"ffprobe_bin,omitempty"`
	ProbeWorkload bool       `yaml:"probe_workload,omitempty"`

	// BaseDir resolves relative paths. Load sets it to the manifest's directory for local files.
	BaseDir string `yaml:"-"`
}

// Defaults apply to every task that does not override them.
type Defaults struct {
	Profile   profile.Profile `yaml:"profile,omitempty"`
	OutputDir string          `yaml:"output_dir,omitempty"`
	OutputExt string          `yaml:"output_ext,omitempty"`
	Command   string          `yaml:"command,omitempty"`
}

// Source expands a directory into one task per matching file.
type Source struct {
	Dir        string          `yaml:"dir"`
	Extensions []string        `yaml:"extensions,omitempty"`
	Recursive  bool            `yaml:"recursive,omitempty"`
	OutputDir  string          `yaml:"output_dir,omitempty"`
	Profile    profile.Profile `yaml:"profile,omitempty"`
}

// TaskSpec is one explicitly listed task.
type TaskSpec struct {
	ID       string          `yaml:"id,omitempty"`
	Name     string          `yaml:"name,omitempty"`
	Input    string          `yaml:"input"`
	Output   string          `yaml:"output,omitempty"`
	Command  string          `yaml:"command,omitempty"`
	Workload float64         `yaml:"workload,omitempty"`
	Profile  profile.Profile `yaml:"profile,omitempty"`
}

// Decode parses a manifest. Unknown fields are errors.
func Decode(data []byte) (*Manifest, error) {
	m := &Manifest{}

	dec := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField())
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrDecode, yaml.FormatError(err, false, true))
	}

	return m, nil
}

// Encode renders m as YAML.
func Encode(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}
