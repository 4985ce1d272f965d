// SPDX-License-Identifier: EPL-2.0

package audmix_test

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/mixer"
)

// constSource yields frames copies of one frame.
type constSource struct {
	rate   int
	frame  []int16
	left   int // samples left
	pos    int // samples produced
	err    error
	closed bool
}

func newConst(rate, frames int, frame ...int16) *constSource {
	return &constSource{rate: rate, frame: frame, left: frames * len(frame)}
}

func (s *constSource) SampleRate() int { return s.rate }
func (s *constSource) Channels() int   { return len(s.frame) }

func (s *constSource) Close() error {
	s.closed = true
	return nil
}

func (s *constSource) ReadSamples(dst []int16) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.left == 0 {
		return 0, io.EOF
	}

	n := min(len(dst), s.left)
	for i := range n {
		dst[i] = s.frame[(s.pos+i)%len(s.frame)]
	}
	s.left -= n
	s.pos += n

	return n, nil
}

func frame(out []int16, f int) (int16, int16) { return out[2*f], out[2*f+1] }

func TestMixToStereo16_Sum(t *testing.T) {
	t.Parallel()

	out, err := audmix.MixToStereo16([]audmix.Input{
		{Source: newConst(48000, 10, 1000, -1000)},
		{Source: newConst(48000, 10, 500, 250)},
	}, audmix.Options{FrameCount: 4})
	if err != nil {
		t.Fatalf("MixToStereo16() error = %v", err)
	}

	// ten frames padded to three blocks
	if len(out) != 2*12 {
		t.Fatalf("len = %d samples, want 24", len(out))
	}
	for f := range 10 {
		if l, r := frame(out, f); l != 1500 || r != -750 {
			t.Fatalf("frame %d = (%d, %d), want (1500, -750)", f, l, r)
		}
	}
	for f := 10; f < 12; f++ {
		if l, r := frame(out, f); l != 0 || r != 0 {
			t.Errorf("padding frame %d = (%d, %d)", f, l, r)
		}
	}
}

func TestMixToStereo16_Layouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   audmix.Input
		l, r int16
	}{
		{"mono", audmix.Input{Source: newConst(48000, 64, 1234)}, 1234, 1234},
		{"half volume", audmix.Input{Source: newConst(48000, 64, 1000, 2000), Volume: 0x0800}, 500, 1000},
		{"muted", audmix.Input{Source: newConst(48000, 64, 1000, 1000), Volume: 0x1000, Muted: true}, 0, 0},
		{"5.1 folded", audmix.Input{Source: newConst(48000, 64, 1000, 2000, 3000, 4000, 500, 600)}, 3224, 3774},
		{"quad override", audmix.Input{
			Source: newConst(48000, 64, 1000, -2000, 3000, -4000),
			Mask:   mixer.ChannelFrontLeft | mixer.ChannelFrontRight | mixer.ChannelSideLeft | mixer.ChannelSideRight,
		}, 2000, -3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := audmix.MixToStereo16([]audmix.Input{tt.in}, audmix.Options{FrameCount: 16})
			if err != nil {
				t.Fatalf("MixToStereo16() error = %v", err)
			}
			// the end of the source is only seen by the block after it
			if len(out) != 2*80 {
				t.Fatalf("len = %d samples, want 160", len(out))
			}
			for f := range 64 {
				if l, r := frame(out, f); l != tt.l || r != tt.r {
					t.Fatalf("frame %d = (%d, %d), want (%d, %d)", f, l, r, tt.l, tt.r)
				}
			}
			for f := 64; f < 80; f++ {
				if l, r := frame(out, f); l != 0 || r != 0 {
					t.Fatalf("padding frame %d = (%d, %d)", f, l, r)
				}
			}
		})
	}
}

func TestMixToStereo16_Resampled(t *testing.T) {
	t.Parallel()

	src := newConst(44100, 4410, 700, -700)
	out, err := audmix.MixToStereo16([]audmix.Input{{Source: src}}, audmix.Options{FrameCount: 256})
	if err != nil {
		t.Fatalf("MixToStereo16() error = %v", err)
	}

	// 100ms of input is 4800 output frames
	frames := len(out) / 2
	if frames < 4800 || frames > 4800+512 {
		t.Fatalf("rendered %d frames, want about 4800", frames)
	}
	for f := 8; f < 4700; f++ {
		if l, r := frame(out, f); l != 700 || r != -700 {
			t.Fatalf("frame %d = (%d, %d), want (700, -700)", f, l, r)
		}
	}
}

func TestRender_Aux(t *testing.T) {
	t.Parallel()

	inputs := []audmix.Input{
		{Source: newConst(48000, 8, 1000), AuxLevel: 0x1000},
		{Source: newConst(48000, 8, 300, 300)},
	}

	blocks := 0
	err := audmix.Render(inputs, audmix.Options{FrameCount: 8}, func(main []int16, aux []int32) error {
		blocks++
		if len(aux) != 8 {
			t.Fatalf("aux holds %d samples, want 8", len(aux))
		}
		if blocks == 1 {
			for i, v := range aux {
				if v != 1000*0x1000 {
					t.Errorf("aux[%d] = %d, want %d", i, v, 1000*0x1000)
				}
			}
			if l, r := frame(main, 0); l != 1300 || r != 1300 {
				t.Errorf("main frame 0 = (%d, %d), want (1300, 1300)", l, r)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if blocks == 0 {
		t.Fatal("no blocks rendered")
	}
}

func TestRender_NoAuxBus(t *testing.T) {
	t.Parallel()

	err := audmix.Render([]audmix.Input{{Source: newConst(48000, 4, 1, 1)}}, audmix.Options{FrameCount: 4},
		func(_ []int16, aux []int32) error {
			if aux != nil {
				t.Error("aux bus allocated without an aux level")
			}
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRender_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("read failed")
	broken := newConst(48000, 100, 1, 1)
	broken.err = boom

	many := make([]audmix.Input, mixer.MaxNumTracks+1)
	for i := range many {
		many[i] = audmix.Input{Source: newConst(48000, 1, 0)}
	}

	stop := errors.New("sink full")

	tests := []struct {
		name   string
		inputs []audmix.Input
		emit   audmix.BlockFunc
		want   error
	}{
		{"no inputs", nil, nil, audmix.ErrNoInputs},
		{"too many", many, nil, audmix.ErrTooManyInputs},
		{"mask mismatch", []audmix.Input{{Source: newConst(48000, 1, 0, 0), Mask: mixer.ChannelOutQuad}}, nil, audmix.ErrUnsupportedChannels},
		{"nine channels", []audmix.Input{{Source: newConst(48000, 1, make([]int16, 9)...)}}, nil, audmix.ErrUnsupportedChannels},
		{"zero rate", []audmix.Input{{Source: newConst(0, 1, 0)}}, nil, audmix.ErrInvalidSampleRate},
		{"negative volume", []audmix.Input{{Source: newConst(48000, 1, 0), Volume: -1}}, nil, audmix.ErrInvalidGain},
		{"negative aux level", []audmix.Input{{Source: newConst(48000, 1, 0), AuxLevel: -0x1000}}, nil, audmix.ErrInvalidGain},
		{"read error", []audmix.Input{{Source: broken}}, nil, boom},
		{"sink error", []audmix.Input{{Source: newConst(48000, 100, 1, 1)}}, func([]int16, []int32) error { return stop }, stop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			emit := tt.emit
			if emit == nil {
				emit = func([]int16, []int32) error { return nil }
			}

			if err := audmix.Render(tt.inputs, audmix.Options{FrameCount: 16}, emit); !errors.Is(err, tt.want) {
				t.Errorf("Render() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func BenchmarkMixToStereo16(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_, _ = audmix.MixToStereo16([]audmix.Input{
			{Source: newConst(44100, 44100, 100, -100)},
			{Source: newConst(48000, 48000, 200)},
		}, audmix.Options{})
	}
}

var _ audio.Source = (*constSource)(nil)
