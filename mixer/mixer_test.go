// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"sync"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/resampler"
)

func TestNew_Config(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{FrameCount: 256, SampleRate: 48000}, false},
		{"limited tracks", Config{FrameCount: 256, SampleRate: 48000, MaxNumTracks: 4}, false},
		{"zero frames", Config{SampleRate: 48000}, true},
		{"negative frames", Config{FrameCount: -1, SampleRate: 48000}, true},
		{"zero rate", Config{FrameCount: 256}, true},
		{"too many tracks", Config{FrameCount: 256, SampleRate: 48000, MaxNumTracks: 33}, true},
		{"negative tracks", Config{FrameCount: 256, SampleRate: 48000, MaxNumTracks: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := New(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("New() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if m.ProcessHook() != ProcessNop {
				t.Errorf("initial hook = %v, want %v", m.ProcessHook(), ProcessNop)
			}
			if m.FrameCount() != tt.cfg.FrameCount {
				t.Errorf("FrameCount() = %d, want %d", m.FrameCount(), tt.cfg.FrameCount)
			}
		})
	}
}

func TestTrackName_Allocation(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{MaxNumTracks: 3})

	for want := TrackBase; want < TrackBase+3; want++ {
		name, err := m.TrackName(ChannelOutStereo, 0)
		if err != nil {
			t.Fatalf("TrackName() error = %v", err)
		}
		if name != want {
			t.Errorf("TrackName() = %#x, want %#x", name, want)
		}
	}

	if _, err := m.TrackName(ChannelOutStereo, 0); !errors.Is(err, ErrNoFreeTrack) {
		t.Fatalf("TrackName() on full mixer error = %v, want ErrNoFreeTrack", err)
	}

	m.DeleteTrackName(TrackBase + 1)

	name, err := m.TrackName(ChannelOutMono, 0)
	if err != nil {
		t.Fatalf("TrackName() after delete error = %v", err)
	}
	if name != TrackBase+1 {
		t.Errorf("TrackName() = %#x, want reused %#x", name, TrackBase+1)
	}
}

func TestTrackName_Defaults(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutStereo, 7)
	tr := &m.state.tracks[name-TrackBase]

	if tr.volume != [2]int16{UnityGain, UnityGain} {
		t.Errorf("volume = %v, want unity", tr.volume)
	}
	if tr.sampleRate != 48000 || tr.resampler != nil {
		t.Errorf("sampleRate = %d resampler = %v, want mix rate and none", tr.sampleRate, tr.resampler)
	}
	if tr.sessionID != 7 || tr.channelCount != 2 || tr.enabled {
		t.Errorf("unexpected defaults %+v", tr)
	}
}

func TestTrackName_MultichannelWithoutCapability(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})

	if _, err := m.TrackName(ChannelOut5Point1, 0); !errors.Is(err, ErrDownmixUnavailable) {
		t.Fatalf("TrackName(5.1) error = %v, want ErrDownmixUnavailable", err)
	}

	// the failed slot is free again
	name, err := m.TrackName(ChannelOutStereo, 0)
	if err != nil || name != TrackBase {
		t.Errorf("TrackName() = %#x, %v, want %#x", name, err, TrackBase)
	}
}

func TestTrackName_DownmixEffectFails(t *testing.T) {
	t.Parallel()

	f := &frontPairFactory{fail: true}
	m := newTestMixer(t, Config{Downmix: f.create})

	if _, err := m.TrackName(ChannelOutQuad, 0); !errors.Is(err, ErrDownmixFailed) {
		t.Fatalf("TrackName(quad) error = %v, want ErrDownmixFailed", err)
	}
}

func TestPanics(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutStereo, 0)

	tests := []struct {
		what string
		fn   func()
	}{
		{"unknown name", func() { m.Enable(TrackBase + 5) }},
		{"name below base", func() { m.Disable(3) }},
		{"bad target", func() { _ = m.SetParameter(name, Target(1), ParamVolume0, 0) }},
		{"bad param", func() { _ = m.SetParameter(name, TargetTrack, ParamVolume0, 0) }},
		{"wrong value type", func() { _ = m.SetParameter(name, TargetVolume, ParamVolume0, "loud") }},
		{"wrong buffer type", func() { _ = m.SetParameter(name, TargetTrack, ParamMainBuffer, []int32{}) }},
		{"8-bit format", func() { _ = m.SetParameter(name, TargetTrack, ParamFormat, Format(2)) }},
		{"zero sample rate", func() { _ = m.SetSampleRate(name, 0) }},
		{"nil provider", func() { m.SetBufferProvider(name, nil) }},
		{"empty mask", func() { _, _ = m.TrackName(0, 0) }},
		{"volume channel", func() { m.SetVolume(name, 2, 0, false) }},
		{"volume above 16 bits", func() { _ = m.SetParameter(name, TargetVolume, ParamVolume0, 0x8000) }},
		{"negative volume", func() { _ = m.SetParameter(name, TargetRampVolume, ParamVolume1, -1) }},
		{"aux level above 16 bits", func() { _ = m.SetParameter(name, TargetVolume, ParamAuxLevel, int32(0x10000)) }},
		{"negative typed volume", func() { m.SetVolume(name, 0, -0x1000, false) }},
		{"negative typed aux level", func() { m.SetAuxLevel(name, -1, false) }},
		{"typed aux level above 16 bits", func() { m.SetAuxLevel(name, 0x8000, true) }},
	}

	for _, tt := range tests {
		mustPanic(t, tt.what, tt.fn)
	}
}

func TestSetParameter_Format(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutStereo, 0)

	if err := m.SetParameter(name, TargetTrack, ParamFormat, FormatPCM16Bit); err != nil {
		t.Errorf("SetParameter(FORMAT) error = %v", err)
	}
	if m.ProcessHook() != ProcessNop {
		t.Errorf("FORMAT invalidated the mixer")
	}
}

func TestSetParameter_Dispatch(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{FrameCount: 8})
	name, _ := m.TrackName(ChannelOutStereo, 0)
	tr := &m.state.tracks[0]

	out := make([]int16, 16)
	aux := make([]int32, 8)

	steps := []struct {
		target Target
		param  Param
		value  any
	}{
		{TargetTrack, ParamMainBuffer, out},
		{TargetTrack, ParamAuxBuffer, aux},
		{TargetTrack, ParamChannelMask, ChannelOutMono},
		{TargetVolume, ParamVolume0, 0x800},
		{TargetVolume, ParamVolume1, int16(0x400)},
		{TargetVolume, ParamAuxLevel, uint32(0x200)},
		{TargetResample, ParamSampleRate, 22050},
	}

	for _, s := range steps {
		if err := m.SetParameter(name, s.target, s.param, s.value); err != nil {
			t.Fatalf("SetParameter(%v, %v) error = %v", s.target, s.param, err)
		}
	}

	if tr.volume != [2]int16{0x800, 0x400} || tr.auxLevel != 0x200 {
		t.Errorf("volume = %v aux = %#x", tr.volume, tr.auxLevel)
	}
	if tr.channelCount != 1 || tr.sampleRate != 22050 || tr.resampler == nil {
		t.Errorf("channels = %d rate = %d resampler = %v", tr.channelCount, tr.sampleRate, tr.resampler)
	}
	if &tr.mainBuffer[0] != &out[0] || &tr.auxBuffer[0] != &aux[0] {
		t.Error("buffers not stored")
	}

	if err := m.SetParameter(name, TargetResample, ParamRemove, nil); err != nil {
		t.Fatal(err)
	}
	if tr.resampler != nil || tr.sampleRate != 48000 {
		t.Errorf("REMOVE left resampler = %v rate = %d", tr.resampler, tr.sampleRate)
	}
}

func TestSetMainBuffer_TooSmall(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{FrameCount: 8})
	name, _ := m.TrackName(ChannelOutStereo, 0)

	if err := m.SetMainBuffer(name, make([]int16, 15)); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("SetMainBuffer() error = %v, want ErrBufferTooSmall", err)
	}
	if err := m.SetAuxBuffer(name, make([]int32, 7)); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("SetAuxBuffer() error = %v, want ErrBufferTooSmall", err)
	}
}

func TestIdenticalValuesDoNotInvalidate(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{FrameCount: 4})
	out := make([]int16, 8)
	name := addTrack(t, m, ChannelOutStereo, audiotest.NewConstantProvider(1, 1), out)

	m.Process(0)
	if m.ProcessHook() != ProcessOneTrack16BitsStereoNoResampling {
		t.Fatalf("hook = %v", m.ProcessHook())
	}

	m.SetVolume(name, 0, UnityGain, true)
	m.SetAuxLevel(name, 0, false)
	_ = m.SetMainBuffer(name, out)
	_ = m.SetChannelMask(name, ChannelOutStereo)
	_ = m.SetSampleRate(name, 48000)
	_ = m.Enable(name)

	if m.ProcessHook() != ProcessOneTrack16BitsStereoNoResampling {
		t.Errorf("identical values invalidated the mixer, hook = %v", m.ProcessHook())
	}

	m.SetVolume(name, 0, 0x800, false)
	if m.ProcessHook() != ProcessValidate {
		t.Errorf("volume change did not invalidate, hook = %v", m.ProcessHook())
	}
}

func TestSetVolume_Ramp(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{FrameCount: 64})
	name, _ := m.TrackName(ChannelOutStereo, 0)
	tr := &m.state.tracks[0]

	m.SetVolume(name, 0, 0x800, true)
	if want := int32(-32 << 16); tr.volumeInc[0] != want {
		t.Errorf("volumeInc = %d, want %d", tr.volumeInc[0], want)
	}
	if tr.prevVolume[0] != UnityGain<<16 {
		t.Errorf("prevVolume = %#x, want %#x", tr.prevVolume[0], UnityGain<<16)
	}

	// a change too small to step snaps at once
	m.SetVolume(name, 1, UnityGain+1, true)
	if tr.volumeInc[1] != 1024 {
		t.Errorf("volumeInc[1] = %d, want 1024", tr.volumeInc[1])
	}

	m2 := newTestMixer(t, Config{FrameCount: 1 << 17})
	n2, _ := m2.TrackName(ChannelOutStereo, 0)
	t2 := &m2.state.tracks[0]
	m2.SetVolume(n2, 0, UnityGain+1, true)
	if t2.volumeInc[0] != 0 || t2.prevVolume[0] != (UnityGain+1)<<16 {
		t.Errorf("tiny ramp inc = %d prev = %#x, want snapped", t2.volumeInc[0], t2.prevVolume[0])
	}

	// without ramp the previous value follows immediately
	m.SetVolume(name, 0, 0x200, false)
	if tr.volumeInc[0] != 0 || tr.prevVolume[0] != 0x200<<16 {
		t.Errorf("plain set inc = %d prev = %#x", tr.volumeInc[0], tr.prevVolume[0])
	}
}

func TestRampDone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		prev, inc, tgt int32
		want           bool
	}{
		{"rising short", 0x0FF0 << 16, 1 << 16, 0x1000, false},
		{"rising lands", 0x0FFF << 16, 1 << 16, 0x1000, true},
		{"rising truncated", 0x1000<<16 - 471, 65, 0x1000, true},
		{"falling short", 0x0810 << 16, -1 << 16, 0x0800, false},
		{"falling lands", 0x0801 << 16, -1 << 16, 0x0800, true},
		{"no ramp", 0, 0, 0, false},
	}

	for _, tt := range tests {
		if got := rampDone(tt.prev, tt.inc, tt.tgt); got != tt.want {
			t.Errorf("%s: rampDone() = %t, want %t", tt.name, got, tt.want)
		}
	}
}

func TestSetSampleRate_ResamplerLifecycle(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutStereo, 0)
	tr := &m.state.tracks[0]

	if err := m.SetSampleRate(name, 48000); err != nil {
		t.Fatal(err)
	}
	if tr.resampler != nil {
		t.Fatal("resampler allocated for the mix rate")
	}
	if m.ProcessHook() != ProcessNop {
		t.Error("mix rate on a fresh track invalidated the mixer")
	}

	if err := m.SetSampleRate(name, 22050); err != nil {
		t.Fatal(err)
	}
	first := tr.resampler
	if first == nil {
		t.Fatal("no resampler for 22050 Hz")
	}

	for _, rate := range []uint32{22050, 22050, 32000, 48000} {
		if err := m.SetSampleRate(name, rate); err != nil {
			t.Fatal(err)
		}
		if tr.resampler != first {
			t.Fatalf("resampler rebuilt for %d Hz", rate)
		}
	}
	if q, ok := m.TrackResamplerQuality(name); !ok || q != resampler.LowQuality {
		t.Errorf("quality = %v, %t, want low", q, ok)
	}

	m.RemoveResampler(name)
	if _, ok := m.TrackResamplerQuality(name); ok || tr.sampleRate != 48000 {
		t.Errorf("RemoveResampler left rate %d", tr.sampleRate)
	}
}

func TestSetSampleRate_QualityTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mix, src uint32
		cfg      resampler.Quality
		want     resampler.Quality
	}{
		{48000, 44100, resampler.DefaultQuality, resampler.MedQuality},
		{44100, 48000, resampler.DefaultQuality, resampler.MedQuality},
		{48000, 44100, resampler.HighQuality, resampler.HighQuality},
		{48000, 32000, resampler.HighQuality, resampler.LowQuality},
		{44100, 22050, resampler.DefaultQuality, resampler.LowQuality},
	}

	for _, tt := range tests {
		m := newTestMixer(t, Config{SampleRate: tt.mix, ResamplerQuality: tt.cfg})
		name, _ := m.TrackName(ChannelOutStereo, 0)
		if err := m.SetSampleRate(name, tt.src); err != nil {
			t.Fatal(err)
		}

		if q, _ := m.TrackResamplerQuality(name); q != tt.want {
			t.Errorf("%d->%d with %v: quality = %v, want %v", tt.src, tt.mix, tt.cfg, q, tt.want)
		}
	}
}

func TestSetChannelMask_RebuildsResampler(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutMono, 0)
	_ = m.SetSampleRate(name, 22050)
	tr := &m.state.tracks[0]

	if tr.resampler.Channels() != 1 {
		t.Fatalf("resampler channels = %d, want 1", tr.resampler.Channels())
	}

	if err := m.SetChannelMask(name, ChannelOutStereo); err != nil {
		t.Fatal(err)
	}
	if tr.resampler.Channels() != 2 || tr.sampleRate != 22050 {
		t.Errorf("resampler channels = %d rate = %d, want 2 at 22050", tr.resampler.Channels(), tr.sampleRate)
	}
}

func TestEnableDisable(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{FrameCount: 4})
	a := addTrack(t, m, ChannelOutStereo, audiotest.NewConstantProvider(1, 1), make([]int16, 8))
	b := addTrack(t, m, ChannelOutStereo, audiotest.NewConstantProvider(2, 2), make([]int16, 8))

	m.Process(0)
	if got := m.EnabledTracks(); len(got) != 2 {
		t.Fatalf("EnabledTracks() = %v", got)
	}
	if m.ProcessHook() != ProcessGenericNoResampling {
		t.Errorf("hook = %v, want generic", m.ProcessHook())
	}

	m.Disable(b)
	m.Process(0)

	if got := m.EnabledTracks(); len(got) != 1 || got[0] != a {
		t.Errorf("EnabledTracks() = %v, want [%#x]", got, a)
	}
	if m.ProcessHook() != ProcessOneTrack16BitsStereoNoResampling {
		t.Errorf("hook = %v, want fast path", m.ProcessHook())
	}

	m.DeleteTrackName(a)
	m.Process(0)
	if got := m.EnabledTracks(); len(got) != 0 {
		t.Errorf("EnabledTracks() after delete = %v", got)
	}
	if m.ProcessHook() != ProcessNop {
		t.Errorf("hook = %v, want nop", m.ProcessHook())
	}
}

func TestConcurrentControl(t *testing.T) {
	t.Parallel()

	const frames = 16

	m := newTestMixer(t, Config{FrameCount: frames})
	out := make([]int16, 2*frames)
	a := addTrack(t, m, ChannelOutStereo, audiotest.NewConstantProvider(100, 100), out)
	b := addTrack(t, m, ChannelOutStereo, audiotest.NewConstantProvider(200, 200), out)

	done := make(chan struct{})
	var wg sync.WaitGroup
	stop := sync.OnceFunc(func() {
		close(done)
		wg.Wait()
	})
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}

			v := int16(UnityGain)
			if i%2 == 1 {
				v = UnityGain / 2
			}
			m.SetVolume(a, 0, v, false)
			m.SetVolume(a, 1, v, false)

			if i%3 == 0 {
				m.Disable(b)
			} else if err := m.Enable(b); err != nil {
				t.Errorf("Enable() error = %v", err)
				return
			}
		}
	}()

	valid := map[int16]bool{50: true, 100: true, 250: true, 300: true}
	for block := range 500 {
		m.Process(audio.InvalidPTS)

		// settings only change between blocks
		for f := range frames {
			l, r := out[2*f], out[2*f+1]
			if !valid[l] || !valid[r] || l != out[0] || r != out[1] {
				t.Fatalf("block %d frame %d = (%d, %d), first frame (%d, %d)", block, f, l, r, out[0], out[1])
			}
		}
	}

	stop()

	m.SetVolume(a, 0, UnityGain, false)
	m.SetVolume(a, 1, UnityGain, false)
	if err := m.Enable(b); err != nil {
		t.Fatal(err)
	}
	m.Process(audio.InvalidPTS)
	checkFrames(t, out, 300, 300)
}

func TestValidate_PanicsWithoutBuffers(t *testing.T) {
	t.Parallel()

	m := newTestMixer(t, Config{})
	name, _ := m.TrackName(ChannelOutStereo, 0)
	m.SetBufferProvider(name, audiotest.NewSilentProvider(2))
	_ = m.Enable(name)

	mustPanic(t, "process without main buffer", func() { m.Process(0) })
}

func TestClose(t *testing.T) {
	t.Parallel()

	f := &frontPairFactory{}
	m := newTestMixer(t, Config{FrameCount: 32, SampleRate: 48000, Downmix: f.create})
	p := audiotest.NewConstantProvider(5, 5)
	name := addTrack(t, m, ChannelOutStereo, p, make([]int16, 64))
	_ = m.SetSampleRate(name, 44100)
	_, _ = m.TrackName(ChannelOutQuad, 0)

	m.Process(0)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	if p.Outstanding() {
		t.Error("Close() left a provider chunk held")
	}
	if !f.created[0].closed {
		t.Error("Close() did not close the downmix effect")
	}
	if m.ProcessHook() != ProcessNop {
		t.Errorf("hook after Close = %v", m.ProcessHook())
	}
	if o, r := m.ScratchSize(); o != 0 || r != 0 {
		t.Errorf("ScratchSize() = %d, %d after Close", o, r)
	}
}

func TestHookStrings(t *testing.T) {
	t.Parallel()

	if ProcessOneTrack16BitsStereoNoResampling.String() != "oneTrack16BitsStereoNoResampling" {
		t.Error(ProcessOneTrack16BitsStereoNoResampling.String())
	}
	if TrackHookGenericResample.String() != "genericResample" {
		t.Error(TrackHookGenericResample.String())
	}
	if TargetRampVolume.String() != "RAMP_VOLUME" || ParamAuxLevel.String() != "AUXLEVEL" {
		t.Error(TargetRampVolume.String(), ParamAuxLevel.String())
	}
	if got := Param(1).String(); got != "Param(0x1)" {
		t.Error(got)
	}
}

func TestChannelOutMaskFromCount(t *testing.T) {
	t.Parallel()

	for n := range MaxNumChannelsToDownmix + 2 {
		mask := ChannelOutMaskFromCount(n)
		switch {
		case n == 0 || n > MaxNumChannelsToDownmix:
			if mask != 0 {
				t.Errorf("ChannelOutMaskFromCount(%d) = %#x, want 0", n, uint32(mask))
			}
		case mask.Channels() != n:
			t.Errorf("ChannelOutMaskFromCount(%d) has %d channels", n, mask.Channels())
		}
	}
}
