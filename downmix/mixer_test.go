// SPDX-License-Identifier: EPL-2.0

package downmix_test

import (
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/downmix"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/mixer"
)

func TestFold_InMixer(t *testing.T) {
	t.Parallel()

	m, err := mixer.New(mixer.Config{
		FrameCount: 32,
		SampleRate: 48000,
		Downmix:    downmix.NewFactory(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	out := make([]int16, 64)
	name, err := m.TrackName(mixer.ChannelOut5Point1, 1)
	if err != nil {
		t.Fatalf("TrackName(5.1) error = %v", err)
	}

	p := audiotest.NewConstantProvider(1000, 2000, 3000, 4000, 500, 600).WithMaxFrames(10)
	m.SetBufferProvider(name, p)
	if err := m.SetMainBuffer(name, out); err != nil {
		t.Fatal(err)
	}
	if err := m.Enable(name); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	m.Process(audio.InvalidPTS)

	for i := range 32 {
		if out[2*i] != 3224 || out[2*i+1] != 3774 {
			t.Fatalf("frame %d = (%d, %d), want (3224, 3774)", i, out[2*i], out[2*i+1])
		}
	}
	if p.Consumed() != 32 {
		t.Errorf("consumed %d frames, want 32", p.Consumed())
	}
}
