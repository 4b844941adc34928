// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"github.com/lithammer/shortuuid/v4"
	"github.com/matt-FFFFFF/mediabatch/internal/ctxlog"
	"github.com/matt-FFFFFF/mediabatch/internal/orchestrator"
	"github.com/matt-FFFFFF/mediabatch/internal/profile"
	"github.com/spf13/afero"
)

// ProbeFunc returns the duration of input in seconds.
type ProbeFunc func(ctx context.Context, ffprobeBin, input string) (float64, error)

// BuildOptions tunes Build.
type BuildOptions struct {
	// Probe is asked for the workload of tasks without one when probe_workload is set.
	Probe ProbeFunc
	// NewID generates IDs for tasks that have none. Defaults to shortuuid.
	NewID func() string
}

// Build expands sources, merges defaults and renders each task's command.
// Sources come first in the result, in directory order, followed by the listed tasks.
func (m *Manifest) Build(ctx context.Context, fs afero.Fs, opts BuildOptions) ([]orchestrator.Task, error) {
	if opts.NewID == nil {
		opts.NewID = shortuuid.New
	}

	var (
		result error
		specs  []TaskSpec
	)

	defaults, err := m.Defaults.Profile.Validate()
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: defaults: %w", ErrInvalid, err))
	}

	base := defaults.Merge(profile.Default())

	for i, src := range m.Sources {
		expanded, err := m.expandSource(fs, src)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: sources[%d]: %w", ErrInvalid, i, err))
			continue
		}

		specs = append(specs, expanded...)
	}

	specs = append(specs, m.Tasks...)

	tasks := make([]orchestrator.Task, 0, len(specs))
	outputs := make(map[string]string, len(specs))

	for i, spec := range specs {
		t, err := m.buildTask(ctx, spec, base, opts)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: task %d (%s): %w", ErrInvalid, i+1, spec.Input, err))
			continue
		}

		if prev, dup := outputs[t.OutputPath]; dup {
			result = multierror.Append(result, fmt.Errorf("%w: tasks %s and %s write %s", ErrInvalid, prev, t.ID, t.OutputPath))
			continue
		}

		outputs[t.OutputPath] = t.ID
		tasks = append(tasks, t)
	}

	if result != nil {
		return nil, result
	}

	return tasks, nil
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.BaseDir == "" {
		return p
	}

	return filepath.Join(m.BaseDir, p)
}

func (m *Manifest) expandSource(fs afero.Fs, src Source) ([]TaskSpec, error) {
	if src.Dir == "" {
		return nil, fmt.Errorf("empty dir")
	}

	root := m.resolve(src.Dir)

	exts := src.Extensions
	if len(exts) == 0 {
		exts = VideoExtensions
	}

	want := make([]string, len(exts))
	for i, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}

		want[i] = strings.ToLower(e)
	}

	var files []string

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && !src.Recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if slices.Contains(want, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	specs := make([]TaskSpec, 0, len(files))

	for _, f := range files {
		spec := TaskSpec{Input: f, Profile: src.Profile}

		if src.OutputDir != "" {
			rel, err := filepath.Rel(root, f)
			if err != nil {
				rel = filepath.Base(f)
			}

			spec.Output = filepath.Join(m.resolve(src.OutputDir), replaceExt(rel, m.outputExt()))
		}

		specs = append(specs, spec)
	}

	return specs, nil
}

func (m *Manifest) outputExt() string {
	ext := m.Defaults.OutputExt
	if ext == "" {
		return defaultOutputExt
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}

func (m *Manifest) outputDir() string {
	if m.Defaults.OutputDir == "" {
		return m.resolve(defaultOutputDir)
	}

	return m.resolve(m.Defaults.OutputDir)
}

func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func (m *Manifest) buildTask(ctx context.Context, spec TaskSpec, base profile.Profile, opts BuildOptions) (orchestrator.Task, error) {
	var result error

	if spec.Input == "" {
		result = multierror.Append(result, fmt.Errorf("empty input"))
	}

	if spec.Workload < 0 {
		result = multierror.Append(result, fmt.Errorf("negative workload %v", spec.Workload))
	}

	prof, err := spec.Profile.Validate()
	if err != nil {
		result = multierror.Append(result, err)
	}

	if result != nil {
		return orchestrator.Task{}, result
	}

	input := m.resolve(spec.Input)

	output := m.resolve(spec.Output)
	if output == "" {
		output = filepath.Join(m.outputDir(), replaceExt(filepath.Base(input), m.outputExt()))
	}

	if filepath.Clean(output) == filepath.Clean(input) {
		return orchestrator.Task{}, fmt.Errorf("output overwrites input %s", input)
	}

	command := spec.Command
	if command == "" {
		command = m.Defaults.Command
	}

	var argv []string

	if command != "" {
		argv, err = RenderCommand(command, input, output)
		if err != nil {
			return orchestrator.Task{}, err
		}
	} else {
		argv = prof.Merge(base).Args(input, output, m.FFmpegBin)
	}

	id := spec.ID
	if id == "" {
		id = opts.NewID()
	}

	name := spec.Name
	if name == "" {
		name = filepath.Base(input)
	}

	workload := spec.Workload
	if workload == 0 && m.ProbeWorkload && opts.Probe != nil {
		d, err := opts.Probe(ctx, m.FFprobeBin, input)
		if err != nil {
			ctxlog.Warn(ctx, "could not probe workload, ETA will ignore this task", "input", input, "error", err)
		} else {
			workload = d
		}
	}

	return orchestrator.Task{
		ID:         id,
		Name:       name,
		InputPath:  input,
		OutputPath: output,
		Command:    argv,
		Workload:   workload,
	}, nil
}

// RenderCommand splits command like a POSIX shell and substitutes the placeholders
// in each argument. Quoting in command is honoured; paths are never re-split.
func RenderCommand(command, input, output string) ([]string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %w", command, err)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	r := strings.NewReplacer(InputPlaceholder, input, OutputPlaceholder, output)

	for i, a := range args {
		args[i] = r.Replace(a)
	}

	return args, nil
}
