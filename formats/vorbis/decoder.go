// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the part of oggvorbis.Reader the source reads from.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	floats     []float32
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// ReadSamples decodes whole frames only, so dst shorter than one frame
// returns ErrShortBuffer.
func (s *source) ReadSamples(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, ErrShortBuffer
	}
	if cap(s.floats) < want {
		s.floats = make([]float32, want)
	}
	s.floats = s.floats[:want]

	// Read returns a count of values, always a multiple of the channel count
	n, err := s.dec.Read(s.floats)
	for i, v := range s.floats[:n] {
		dst[i] = utils.Float32ToInt16(v)
	}

	switch {
	case errors.Is(err, io.EOF):
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	case err != nil:
		return n, fmt.Errorf("decoding vorbis: %w", err)
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		floats:     make([]float32, 4096),
	}, nil
}
