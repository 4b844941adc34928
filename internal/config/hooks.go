// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
)

// stringToDurationHookFunc parses Go duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc parses human-readable sizes such as "4KB" or "10GB".
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(datasize.ByteSize(0)) {
			return data, nil
		}

		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}

		return size, nil
	}
}

// stringToEnumHookFunc rejects values outside the closed sets.
func stringToEnumHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		s := data.(string)

		switch t {
		case reflect.TypeOf(DisplayMode("")):
			return ParseDisplayMode(s)
		case reflect.TypeOf(CleanupMode("")):
			return ParseCleanupMode(s)
		case reflect.TypeOf(LogFormat("")):
			return ParseLogFormat(s)
		default:
			return data, nil
		}
	}
}
