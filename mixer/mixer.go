// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/pion/logging"

	"github.com/ik5/audmix/audio"
	ilogging "github.com/ik5/audmix/internal/logging"
	"github.com/ik5/audmix/resampler"
)

var logger = ilogging.NewLogger("mixer")

// state is everything Process touches.
type state struct {
	enabledTracks uint32
	needsChanged  uint32
	frameCount    int
	hook          ProcessHook

	// allocated only while a track resamples
	outputTemp   []int32
	resampleTemp []int32

	outTemp [blockSize * MaxNumChannels]int32

	tracks [MaxNumTracks]track
}

// Mixer mixes tracks into stereo 16-bit blocks of a fixed size.
type Mixer struct {
	mu sync.Mutex

	trackNames      uint32
	configuredNames uint32

	sampleRate       uint32
	localTimeFreq    uint64
	resamplerQuality resampler.Quality
	downmix          DownmixFactory

	log logging.LeveledLogger

	state state
}

// New validates cfg and returns a Mixer with no tracks.
func New(cfg Config) (*Mixer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Mixer{
		configuredNames:  uint32(uint64(1)<<cfg.MaxNumTracks - 1),
		sampleRate:       cfg.SampleRate,
		localTimeFreq:    cfg.LocalTimeFreq,
		resamplerQuality: cfg.ResamplerQuality,
		downmix:          cfg.Downmix,
		log:              cfg.Logger,
	}
	if m.log == nil {
		m.log = logger
	}

	m.state.frameCount = cfg.FrameCount
	m.state.hook = ProcessNop

	if m.downmix != nil {
		m.log.Infof("downmix capability available")
	} else {
		m.log.Infof("no downmix capability, multichannel tracks are not supported")
	}

	return m, nil
}

// FrameCount is the block size in frames.
func (m *Mixer) FrameCount() int { return m.state.frameCount }

// SampleRate is the output rate in Hz.
func (m *Mixer) SampleRate() uint32 { return m.sampleRate }

// LocalTimeFreq is the number of presentation time ticks per second.
func (m *Mixer) LocalTimeFreq() uint64 { return m.localTimeFreq }

// index maps a track name to its slot. It panics on names that do not
// refer to an allocated track.
func (m *Mixer) index(name int) int {
	i := name - TrackBase
	if i < 0 || i >= MaxNumTracks || m.trackNames&(1<<i) == 0 {
		panic(fmt.Sprintf("mixer: bad track name %d", name))
	}

	return i
}

func (m *Mixer) invalidate(mask uint32) {
	if mask != 0 {
		m.state.needsChanged |= mask
		m.state.hook = ProcessValidate
	}
}

// TrackName allocates a track for content laid out as mask. The track
// starts stereo at unity gain and must get a buffer provider and a main
// buffer before it is enabled.
func (m *Mixer) TrackName(mask ChannelMask, sessionID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := mask.Channels(); n == 0 || n > MaxNumChannelsToDownmix {
		panic(fmt.Sprintf("mixer: channel mask %#x has %d channels", uint32(mask), n))
	}

	names := ^m.trackNames & m.configuredNames
	if names == 0 {
		return -1, ErrNoFreeTrack
	}

	n := bits.TrailingZeros32(names)
	m.trackNames |= 1 << n

	t := &m.state.tracks[n]
	t.reset(m.sampleRate, sessionID)

	if err := m.initTrackDownmix(t, n, mask); err != nil {
		m.trackNames &^= 1 << n
		m.log.Errorf("allocating track for mask %#x: %v", uint32(mask), err)
		return -1, err
	}

	m.log.Debugf("add track %d", TrackBase+n)

	return TrackBase + n, nil
}

// DeleteTrackName frees the track, its resampler and its downmix stage.
func (m *Mixer) DeleteTrackName(name int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name)
	t := &m.state.tracks[i]

	m.log.Debugf("delete track %d", name)

	if t.enabled {
		t.enabled = false
		m.invalidate(1 << i)
	}
	m.removeResampler(t)
	m.unprepareTrackForDownmix(t, i)

	m.trackNames &^= 1 << i
}

// Enable adds the track to the mix from the next block on. A track with
// more than two channels cannot be enabled without a downmix stage.
func (m *Mixer) Enable(name int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name)
	t := &m.state.tracks[i]

	if t.channelCount > MaxNumChannels && t.downmix == nil {
		return fmt.Errorf("track %d with %d channels: %w", name, t.channelCount, ErrDownmixUnavailable)
	}

	if !t.enabled {
		t.enabled = true
		m.log.Tracef("enable(%d)", name)
		m.invalidate(1 << i)
	}

	return nil
}

// Disable removes the track from the mix from the next block on.
func (m *Mixer) Disable(name int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(name)
	t := &m.state.tracks[i]

	if t.enabled {
		t.enabled = false
		m.log.Tracef("disable(%d)", name)
		m.invalidate(1 << i)
	}
}

// SetBufferProvider sets where the track pulls its PCM from. With a downmix
// stage in place p becomes the stage's upstream.
func (m *Mixer) SetBufferProvider(name int, p audio.BufferProvider) {
	if p == nil {
		panic("mixer: nil buffer provider")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := &m.state.tracks[m.index(name)]

	if t.downmix != nil {
		if t.downmix.Upstream() != p {
			m.log.Tracef("setBufferProvider for downmix on track %d", name)
			t.provider = t.downmix
			t.downmix.SetUpstream(p)
		}
		return
	}

	t.provider = p
}

// Process mixes one block into the main and aux buffers of every enabled
// track. pts is the presentation time of the first frame, or
// audio.InvalidPTS.
func (m *Mixer) Process(pts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.run(m.state.hook, pts)
}

// UnreleasedFrames is the number of frames the track's resampler holds but
// has not consumed. Unknown names report zero.
func (m *Mixer) UnreleasedFrames(name int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := name - TrackBase
	if i < 0 || i >= MaxNumTracks {
		return 0
	}

	return m.state.tracks[i].unreleasedFrames()
}

// Close frees the resamplers and downmix stages of all tracks.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for names := m.trackNames; names != 0; {
		i := bits.TrailingZeros32(names)
		names &^= 1 << i
		t := &m.state.tracks[i]

		m.removeResampler(t)
		m.unprepareTrackForDownmix(t, i)
		t.enabled = false
	}

	m.trackNames = 0
	m.state.enabledTracks = 0
	m.state.needsChanged = 0
	m.state.outputTemp = nil
	m.state.resampleTemp = nil
	m.state.hook = ProcessNop

	return nil
}

// ProcessHook returns the routine the next Process call will run.
func (m *Mixer) ProcessHook() ProcessHook {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.hook
}

// TrackHook returns the routine selected for the track at the last
// validation.
func (m *Mixer) TrackHook(name int) TrackHook {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.tracks[m.index(name)].hook
}

// TrackNeeds returns the needs computed for the track at the last
// validation.
func (m *Mixer) TrackNeeds(name int) Needs {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.tracks[m.index(name)].needs
}

// EnabledTracks returns the names of the tracks mixed by the last
// validation, lowest first.
func (m *Mixer) EnabledTracks() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []int
	for en := m.state.enabledTracks; en != 0; {
		i := bits.TrailingZeros32(en)
		en &^= 1 << i
		names = append(names, TrackBase+i)
	}

	return names
}

// ScratchSize returns the lengths of the resampling scratch buffers, zero
// when none are allocated.
func (m *Mixer) ScratchSize() (output, resample int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.state.outputTemp), len(m.state.resampleTemp)
}

// TrackResamplerQuality reports the quality of the track's resampler, and
// false when the track does not resample.
func (m *Mixer) TrackResamplerQuality(name int) (resampler.Quality, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &m.state.tracks[m.index(name)]
	if t.resampler == nil {
		return resampler.DefaultQuality, false
	}

	return t.resampler.Quality(), true
}
