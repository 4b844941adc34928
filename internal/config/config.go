// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads mediabatch settings from defaults, an optional config file,
// MEDIABATCH_* environment variables and command-line overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "MEDIABATCH"
	// FileName is the config file name without extension.
	FileName = "mediabatch"
)

var (
	// ErrLoad is returned when the config file cannot be read or decoded.
	ErrLoad = errors.New("could not load config")
	// ErrInvalid is returned when a setting is out of range.
	ErrInvalid = errors.New("invalid config")
)

// Config holds every setting.
type Config struct {
	Concurrency  int               `mapstructure:"concurrency"`
	Overwrite    bool              `mapstructure:"overwrite"`
	Display      DisplayMode       `mapstructure:"display"`
	Cleanup      CleanupMode       `mapstructure:"cleanup"`
	TrashDir     string            `mapstructure:"trash_dir"`
	TailLines    int               `mapstructure:"tail_lines"`
	ReadTimeout  time.Duration     `mapstructure:"read_timeout"`
	ReadBuffer   datasize.ByteSize `mapstructure:"read_buffer"`
	DrainTimeout time.Duration     `mapstructure:"drain_timeout"`
	MinFreeDisk  datasize.ByteSize `mapstructure:"min_free_disk"`
	FailFast     bool              `mapstructure:"fail_fast"`
	LogLevel     string            `mapstructure:"log_level"`
	LogFormat    LogFormat         `mapstructure:"log_format"`
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("concurrency", 0)
	vp.SetDefault("overwrite", false)
	vp.SetDefault("display", string(DisplayNormal))
	vp.SetDefault("cleanup", string(CleanupTrash))
	vp.SetDefault("trash_dir", "")
	vp.SetDefault("tail_lines", 20)
	vp.SetDefault("read_timeout", "2s")
	vp.SetDefault("read_buffer", "4KB")
	vp.SetDefault("drain_timeout", "1s")
	vp.SetDefault("min_free_disk", "0")
	vp.SetDefault("fail_fast", false)
	vp.SetDefault("log_level", "")
	vp.SetDefault("log_format", string(LogPretty))
}

// Load reads the configuration. When file is empty, mediabatch.yaml is looked up in the
// working directory and in $XDG_CONFIG_HOME/mediabatch, and a missing file is not an error.
func Load(file string) (*Config, error) {
	vp := viper.New()

	setDefaults(vp)

	if file != "" {
		vp.SetConfigFile(file)
	} else {
		vp.SetConfigName(FileName)
		vp.SetConfigType("yaml")
		vp.AddConfigPath(".")

		if dir, err := os.UserConfigDir(); err == nil {
			vp.AddConfigPath(filepath.Join(dir, FileName))
		}
	}

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Join(ErrLoad, err)
		}
	}

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vp.AutomaticEnv()

	var cfg Config

	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
			stringToEnumHookFunc(),
		),
	))
	if err != nil {
		return nil, errors.Join(ErrLoad, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration with no file, environment or overrides applied.
func Default() *Config {
	return &Config{
		Display:      DisplayNormal,
		Cleanup:      CleanupTrash,
		TailLines:    20,
		ReadTimeout:  2 * time.Second,
		ReadBuffer:   4 * datasize.KB,
		DrainTimeout: time.Second,
		LogFormat:    LogPretty,
	}
}

// Validate checks numeric ranges. Enums are checked when decoded.
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: concurrency %d is negative", ErrInvalid, c.Concurrency))
	}

	if c.TailLines < 1 {
		errs = append(errs, fmt.Errorf("%w: tail_lines must be at least 1", ErrInvalid))
	}

	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: read_timeout must be positive", ErrInvalid))
	}

	if c.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: drain_timeout must be positive", ErrInvalid))
	}

	if c.ReadBuffer < 64 {
		errs = append(errs, fmt.Errorf("%w: read_buffer %s is too small", ErrInvalid, c.ReadBuffer.HumanReadable()))
	}

	return errors.Join(errs...)
}

// Overrides are values set on the command line. Nil fields leave the config unchanged.
type Overrides struct {
	Concurrency *int
	Overwrite   *bool
	Display     *DisplayMode
	Cleanup     *CleanupMode
	TrashDir    *string
	FailFast    *bool
	LogLevel    *string
	LogFormat   *LogFormat
}

// ApplyOverrides copies every set override into c and revalidates.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Concurrency != nil {
		c.Concurrency = *o.Concurrency
	}

	if o.Overwrite != nil {
		c.Overwrite = *o.Overwrite
	}

	if o.Display != nil {
		c.Display = *o.Display
	}

	if o.Cleanup != nil {
		c.Cleanup = *o.Cleanup
	}

	if o.TrashDir != nil {
		c.TrashDir = *o.TrashDir
	}

	if o.FailFast != nil {
		c.FailFast = *o.FailFast
	}

	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}

	if o.LogFormat != nil {
		c.LogFormat = *o.LogFormat
	}

	return c.Validate()
}
