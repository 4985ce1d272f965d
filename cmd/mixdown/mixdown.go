// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pion/logging"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/mixer"
	"github.com/ik5/audmix/resampler"
	"github.com/ik5/audmix/utils"
)

var (
	errUnknownFormat = errors.New("unknown input format")
	errBadGain       = errors.New("bad gain")
	errGainCount     = errors.New("gain count does not match inputs")
)

func newRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	return reg
}

// parseGain reads a Q4.12 gain. Values starting with 0x are taken as raw
// fixed point, anything else as a float multiplier.
func parseGain(s string) (int16, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil || v < 0 || v > math.MaxInt16 {
			return 0, fmt.Errorf("%w: %q", errBadGain, s)
		}
		return int16(v), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %q", errBadGain, s)
	}
	v := math.Round(f * mixer.UnityGain)
	if v > math.MaxInt16 {
		return 0, fmt.Errorf("%w: %q", errBadGain, s)
	}

	return int16(v), nil
}

// gains expands the repeated flag values to one gain per input. No values
// yields def for every input and a single value applies to all of them.
func gains(values []string, inputs int, def int16) ([]int16, error) {
	out := make([]int16, inputs)

	switch len(values) {
	case 0:
		for i := range out {
			out[i] = def
		}
		return out, nil
	case 1, inputs:
	default:
		return nil, fmt.Errorf("%w: %d values for %d inputs", errGainCount, len(values), inputs)
	}

	for i := range out {
		g, err := parseGain(values[min(i, len(values)-1)])
		if err != nil {
			return nil, err
		}
		out[i] = g
	}

	return out, nil
}

func openInput(reg *audio.Registry, path string) (audio.Source, *os.File, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	dec, ok := reg.Get(ext)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (known: %s)", errUnknownFormat, ext, strings.Join(reg.Formats(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return src, f, nil
}

func run(a args, log logging.LeveledLogger) error {
	quality, err := resampler.ParseQuality(a.Quality)
	if err != nil {
		return err
	}
	volumes, err := gains(a.Volume, len(a.Inputs), mixer.UnityGain)
	if err != nil {
		return fmt.Errorf("--volume: %w", err)
	}
	auxLevels, err := gains(a.Aux, len(a.Inputs), 0)
	if err != nil {
		return fmt.Errorf("--aux: %w", err)
	}

	reg := newRegistry()
	inputs := make([]audmix.Input, 0, len(a.Inputs))
	for i, path := range a.Inputs {
		src, f, err := openInput(reg, path)
		if err != nil {
			return err
		}
		defer f.Close()
		defer src.Close()

		log.Infof("%s: %d Hz, %d channels", path, src.SampleRate(), src.Channels())
		inputs = append(inputs, audmix.Input{
			Source:   src,
			Volume:   volumes[i],
			Muted:    volumes[i] == 0,
			AuxLevel: auxLevels[i],
		})
	}

	out, err := os.Create(a.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := wav.NewEncoder(out, int(a.Rate), 2)
	if err != nil {
		return err
	}

	var auxEnc *wav.Encoder
	var auxPCM []int16
	if a.AuxOut != "" {
		auxFile, err := os.Create(a.AuxOut)
		if err != nil {
			return err
		}
		defer auxFile.Close()

		if auxEnc, err = wav.NewEncoder(auxFile, int(a.Rate), 1); err != nil {
			return err
		}
		auxPCM = make([]int16, a.Block)
	}

	err = audmix.Render(inputs, audmix.Options{
		SampleRate: a.Rate,
		FrameCount: a.Block,
		Quality:    quality,
		Logger:     log,
	}, func(main []int16, aux []int32) error {
		if err := enc.Write(main); err != nil {
			return err
		}
		if auxEnc == nil {
			return nil
		}
		for i := range auxPCM {
			var v int32
			if aux != nil {
				v = aux[i] >> 12
			}
			auxPCM[i] = int16(utils.Clamp16(v))
		}
		return auxEnc.Write(auxPCM)
	})
	if err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return err
	}
	if auxEnc != nil {
		if err := auxEnc.Close(); err != nil {
			return err
		}
	}
	log.Infof("wrote %d frames to %s", enc.Frames(), a.Output)

	return nil
}
