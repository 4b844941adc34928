// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package profile renders ffmpeg argument lists from a small set of closed choices.
package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownValue is returned when a profile field has a value outside its set.
var ErrUnknownValue = errors.New("unknown profile value")

// DefaultFFmpeg is the executable used when none is configured.
const DefaultFFmpeg = "ffmpeg"

// Codec selects the video encoder.
type Codec string

// Codecs.
const (
	CodecHEVC Codec = "hevc"
	CodecH264 Codec = "h264"
	CodecCopy Codec = "copy"
)

// Quality is a constant-quality preset.
type Quality string

// Quality presets, from largest to smallest output.
const (
	QualityMaster     Quality = "master"
	QualityNormal     Quality = "normal"
	QualityCompact    Quality = "compact"
	QualityCompressed Quality = "compressed"
)

// FPS is the output frame rate.
type FPS string

// Frame rates.
const (
	FPSOriginal FPS = "original"
	FPS24       FPS = "24"
	FPS25       FPS = "25"
	FPS30       FPS = "30"
	FPS50       FPS = "50"
	FPS60       FPS = "60"
)

// Resolution caps the output height. It never upscales.
type Resolution string

// Resolutions.
const (
	ResolutionOriginal Resolution = "original"
	Resolution480p     Resolution = "480p"
	Resolution720p     Resolution = "720p"
	Resolution1080p    Resolution = "1080p"
	Resolution2160p    Resolution = "2160p"
)

// Audio selects the audio treatment.
type Audio string

// Audio treatments.
const (
	AudioCopy      Audio = "copy"
	AudioNormalize Audio = "normalize"
)

var (
	codecs      = []Codec{CodecHEVC, CodecH264, CodecCopy}
	qualities   = []Quality{QualityMaster, QualityNormal, QualityCompact, QualityCompressed}
	frameRates  = []FPS{FPSOriginal, FPS24, FPS25, FPS30, FPS50, FPS60}
	resolutions = []Resolution{ResolutionOriginal, Resolution480p, Resolution720p, Resolution1080p, Resolution2160p}
	audios      = []Audio{AudioCopy, AudioNormalize}
)

func parse[T ~string](kind, s string, allowed []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))

	for _, a := range allowed {
		if a == v {
			return a, nil
		}
	}

	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}

	var zero T

	return zero, fmt.Errorf("%w: %s %q, want one of %s", ErrUnknownValue, kind, s, strings.Join(names, ", "))
}

// ParseCodec parses a codec name.
func ParseCodec(s string) (Codec, error) { return parse("codec", s, codecs) }

// ParseQuality parses a quality preset name.
func ParseQuality(s string) (Quality, error) { return parse("quality", s, qualities) }

// ParseFPS parses a frame rate.
func ParseFPS(s string) (FPS, error) { return parse("fps", s, frameRates) }

// ParseResolution parses a resolution.
func ParseResolution(s string) (Resolution, error) { return parse("resolution", s, resolutions) }

// ParseAudio parses an audio treatment.
func ParseAudio(s string) (Audio, error) { return parse("audio", s, audios) }

// CQ returns the constant-quality value of the preset.
func (q Quality) CQ() int {
	switch q {
	case QualityMaster:
		return 26
	case QualityCompact:
		return 34
	case QualityCompressed:
		return 40
	default:
		return 30
	}
}

// Height returns the height cap, or 0 for original.
func (r Resolution) Height() int {
	switch r {
	case Resolution480p:
		return 480
	case Resolution720p:
		return 720
	case Resolution1080p:
		return 1080
	case Resolution2160p:
		return 2160
	default:
		return 0
	}
}

// Profile is a complete set of choices. The zero value is the default profile.
type Profile struct {
	Codec      Codec      `yaml:"codec,omitempty"`
	Quality    Quality    `yaml:"quality,omitempty"`
	FPS        FPS        `yaml:"fps,omitempty"`
	Resolution Resolution `yaml:"resolution,omitempty"`
	Audio      Audio      `yaml:"audio,omitempty"`
}

// Default returns the default profile.
func Default() Profile {
	return Profile{
		Codec:      CodecHEVC,
		Quality:    QualityNormal,
		FPS:        FPSOriginal,
		Resolution: ResolutionOriginal,
		Audio:      AudioCopy,
	}
}

// Merge returns p with its empty fields taken from base.
func (p Profile) Merge(base Profile) Profile {
	if p.Codec == "" {
		p.Codec = base.Codec
	}

	if p.Quality == "" {
		p.Quality = base.Quality
	}

	if p.FPS == "" {
		p.FPS = base.FPS
	}

	if p.Resolution == "" {
		p.Resolution = base.Resolution
	}

	if p.Audio == "" {
		p.Audio = base.Audio
	}

	return p
}

// Validate checks every non-empty field and normalises case.
func (p Profile) Validate() (Profile, error) {
	var errs []error

	if p.Codec != "" {
		v, err := ParseCodec(string(p.Codec))
		errs = append(errs, err)
		p.Codec = v
	}

	if p.Quality != "" {
		v, err := ParseQuality(string(p.Quality))
		errs = append(errs, err)
		p.Quality = v
	}

	if p.FPS != "" {
		v, err := ParseFPS(string(p.FPS))
		errs = append(errs, err)
		p.FPS = v
	}

	if p.Resolution != "" {
		v, err := ParseResolution(string(p.Resolution))
		errs = append(errs, err)
		p.Resolution = v
	}

	if p.Audio != "" {
		v, err := ParseAudio(string(p.Audio))
		errs = append(errs, err)
		p.Audio = v
	}

	return p, errors.Join(errs...)
}

// Args returns the full ffmpeg argv. Empty fields take their defaults.
func (p Profile) Args(input, output, ffmpegBin string) []string {
	p = p.Merge(Default())

	if ffmpegBin == "" {
		ffmpegBin = DefaultFFmpeg
	}

	args := []string{ffmpegBin, "-hide_banner", "-nostdin", "-y", "-i", input}
	args = append(args, p.videoArgs()...)

	if vf := p.filter(); vf != "" {
		args = append(args, "-vf", vf)
	}

	args = append(args, p.audioArgs()...)
	args = append(args, output)

	return args
}

func (p Profile) videoArgs() []string {
	if p.Codec == CodecCopy {
		return []string{"-c:v", "copy"}
	}

	encoder, bframes := "hevc_nvenc", "4"
	if p.Codec == CodecH264 {
		encoder, bframes = "h264_nvenc", "2"
	}

	args := []string{
		"-c:v", encoder,
		"-preset", "p5",
		"-tune", "hq",
		"-rc", "vbr_hq",
		"-cq", strconv.Itoa(p.Quality.CQ()),
		"-b:v", "0",
		"-spatial_aq", "1",
		"-temporal_aq", "1",
		"-aq-strength", "8",
		"-rc-lookahead", "32",
		"-refs", "4",
		"-bf", bframes,
	}

	if p.Codec == CodecHEVC {
		args = append(args, "-b_ref_mode", "middle")
	}

	if p.FPS != FPSOriginal {
		args = append(args, "-r", string(p.FPS))
	}

	return append(args, "-movflags", "+faststart")
}

// filter returns the scale filter, or "" when the video keeps its size.
func (p Profile) filter() string {
	if p.Codec == CodecCopy {
		return ""
	}

	if h := p.Resolution.Height(); h > 0 {
		return fmt.Sprintf("scale=-2:'min(ih,%d)':flags=lanczos", h)
	}

	if p.Quality == QualityCompressed {
		// Short side to 720 for either orientation.
		return "scale='if(gt(iw,ih),-2,min(iw,720))':'if(gt(iw,ih),min(ih,720),-2)':flags=lanczos"
	}

	return ""
}

func (p Profile) audioArgs() []string {
	if p.Audio == AudioNormalize {
		return []string{"-c:a", "aac", "-b:a", "192k", "-af", "loudnorm=I=-16:TP=-3:LRA=11:print_format=summary"}
	}

	return []string{"-c:a", "copy"}
}
