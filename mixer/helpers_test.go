// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"testing"

	"github.com/ik5/audmix/audio"
)

// frontPair downmixes by keeping the first two channels of every frame.
type frontPair struct {
	channels int
	fail     error
	closed   bool
	calls    int
}

func (d *frontPair) Process(buf []int16, frames int) error {
	d.calls++
	if d.fail != nil {
		return d.fail
	}

	for f := range frames {
		buf[2*f] = buf[f*d.channels]
		buf[2*f+1] = buf[f*d.channels+1]
	}

	return nil
}

func (d *frontPair) Close() error {
	d.closed = true
	return nil
}

var errNoEffect = errors.New("effect refused")

// frontPairFactory records every effect it creates.
type frontPairFactory struct {
	created []*frontPair
	fail    bool
}

func (f *frontPairFactory) create(mask ChannelMask, _ int, _ uint32) (Downmixer, error) {
	if f.fail {
		return nil, errNoEffect
	}

	d := &frontPair{channels: mask.Channels()}
	f.created = append(f.created, d)

	return d, nil
}

func newTestMixer(t *testing.T, cfg Config) *Mixer {
	t.Helper()

	if cfg.FrameCount == 0 {
		cfg.FrameCount = 16
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return m
}

// addTrack allocates an enabled track mixing p into out.
func addTrack(t *testing.T, m *Mixer, mask ChannelMask, p audio.BufferProvider, out []int16) int {
	t.Helper()

	name, err := m.TrackName(mask, 0)
	if err != nil {
		t.Fatalf("TrackName() error = %v", err)
	}

	m.SetBufferProvider(name, p)
	if err := m.SetMainBuffer(name, out); err != nil {
		t.Fatalf("SetMainBuffer() error = %v", err)
	}
	if err := m.Enable(name); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	return name
}

func mustPanic(t *testing.T, what string, fn func()) {
	t.Helper()

	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", what)
		}
	}()

	fn()
}

// checkFrames verifies every frame of out equals (l, r).
func checkFrames(t *testing.T, out []int16, l, r int16) {
	t.Helper()

	for f := 0; f < len(out)/2; f++ {
		if out[2*f] != l || out[2*f+1] != r {
			t.Errorf("frame %d = (%d, %d), want (%d, %d)", f, out[2*f], out[2*f+1], l, r)
			return
		}
	}
}
