// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audmix/audio"
)

// pcmReader is the part of aiff.Decoder the source reads from.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	ints       goaudio.IntBuffer
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	if cap(s.ints.Data) < len(dst) {
		s.ints.Data = make([]int, len(dst))
	}
	s.ints.Data = s.ints.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(&s.ints)
	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
	case err != nil:
		return 0, fmt.Errorf("reading PCM: %w", err)
	case n == 0:
		s.eof = true
	}

	for i, v := range s.ints.Data[:n] {
		dst[i] = int16(v)
	}

	if n == 0 {
		return 0, io.EOF
	}

	return n, nil
}

type Decoder struct{}

// Decode parses the COMM chunk of an AIFF stream. go-audio needs to seek,
// so a reader without Seek is read into memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	if dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		ints:       goaudio.IntBuffer{Format: format, SourceBitDepth: 16},
	}, nil
}
