// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math/bits"
)

const (
	// TrackBase is the name of the first track slot.
	TrackBase = 0x1000

	// MaxNumTracks is the number of track slots a Mixer can hold.
	MaxNumTracks = 32
	// MaxNumChannels is the output channel count.
	MaxNumChannels = 2
	// MaxNumChannelsToDownmix is the widest input a downmix stage accepts.
	MaxNumChannelsToDownmix = 8

	// UnityGain is the Q4.12 volume that leaves samples unchanged.
	UnityGain = 0x1000

	// sub-block size of the generic no-resampling path
	blockSize = 16
)

// Target selects the parameter group addressed by SetParameter.
type Target int

const (
	TargetTrack      Target = 0x3000
	TargetResample   Target = 0x3001
	TargetRampVolume Target = 0x3002
	TargetVolume     Target = 0x3003
)

func (t Target) String() string {
	switch t {
	case TargetTrack:
		return "TRACK"
	case TargetResample:
		return "RESAMPLE"
	case TargetRampVolume:
		return "RAMP_VOLUME"
	case TargetVolume:
		return "VOLUME"
	}

	return fmt.Sprintf("Target(%#x)", int(t))
}

// Param names a single parameter inside a Target group.
type Param int

const (
	// TargetTrack
	ParamChannelMask Param = 0x4000
	ParamFormat      Param = 0x4001
	ParamMainBuffer  Param = 0x4002
	ParamAuxBuffer   Param = 0x4003

	// TargetResample
	ParamSampleRate Param = 0x4100
	ParamReset      Param = 0x4101
	ParamRemove     Param = 0x4102

	// TargetVolume and TargetRampVolume
	ParamVolume0  Param = 0x4200
	ParamVolume1  Param = 0x4201
	ParamAuxLevel Param = 0x4210
)

func (p Param) String() string {
	switch p {
	case ParamChannelMask:
		return "CHANNEL_MASK"
	case ParamFormat:
		return "FORMAT"
	case ParamMainBuffer:
		return "MAIN_BUFFER"
	case ParamAuxBuffer:
		return "AUX_BUFFER"
	case ParamSampleRate:
		return "SAMPLE_RATE"
	case ParamReset:
		return "RESET"
	case ParamRemove:
		return "REMOVE"
	case ParamVolume0:
		return "VOLUME0"
	case ParamVolume1:
		return "VOLUME1"
	case ParamAuxLevel:
		return "AUXLEVEL"
	}

	return fmt.Sprintf("Param(%#x)", int(p))
}

// Format is a PCM sample format.
type Format int

// FormatPCM16Bit is the only format a track accepts.
const FormatPCM16Bit Format = 1

// ChannelMask is a set of speaker positions, one bit each.
type ChannelMask uint32

const (
	ChannelFrontLeft    ChannelMask = 0x1
	ChannelFrontRight   ChannelMask = 0x2
	ChannelFrontCenter  ChannelMask = 0x4
	ChannelLowFrequency ChannelMask = 0x8
	ChannelBackLeft     ChannelMask = 0x10
	ChannelBackRight    ChannelMask = 0x20
	ChannelBackCenter   ChannelMask = 0x100
	ChannelSideLeft     ChannelMask = 0x200
	ChannelSideRight    ChannelMask = 0x400

	ChannelOutMono    = ChannelFrontLeft
	ChannelOutStereo  = ChannelFrontLeft | ChannelFrontRight
	ChannelOutQuad    = ChannelOutStereo | ChannelBackLeft | ChannelBackRight
	ChannelOut5Point1 = ChannelOutQuad | ChannelFrontCenter | ChannelLowFrequency
	ChannelOut7Point1 = ChannelOut5Point1 | ChannelSideLeft | ChannelSideRight
)

// Channels returns the number of positions in the mask.
func (m ChannelMask) Channels() int {
	return bits.OnesCount32(uint32(m))
}

// ChannelOutMaskFromCount returns the usual layout for n interleaved
// channels, or 0 when n is outside 1..MaxNumChannelsToDownmix.
func ChannelOutMaskFromCount(n int) ChannelMask {
	switch n {
	case 1:
		return ChannelOutMono
	case 2:
		return ChannelOutStereo
	case 3:
		return ChannelOutStereo | ChannelFrontCenter
	case 4:
		return ChannelOutQuad
	case 5:
		return ChannelOutQuad | ChannelFrontCenter
	case 6:
		return ChannelOut5Point1
	case 7:
		return ChannelOut5Point1 | ChannelBackCenter
	case 8:
		return ChannelOut7Point1
	}

	return 0
}

// Needs summarises what a track requires from the mixing routines. It is
// recomputed during validation.
type Needs uint32

const (
	NeedsChannelCountMask Needs = 0x0000000F
	NeedsChannel1         Needs = 0x00000001
	NeedsChannel2         Needs = 0x00000002

	NeedsFormatMask Needs = 0x000000F0
	NeedsFormat16   Needs = 0x00000010

	NeedsMuteMask    Needs = 0x00000100
	NeedsMuteEnabled Needs = 0x00000100

	NeedsResampleMask    Needs = 0x00001000
	NeedsResampleEnabled Needs = 0x00001000

	NeedsAuxMask    Needs = 0x00010000
	NeedsAuxEnabled Needs = 0x00010000
)

// ChannelCount is the input channel count recorded in n.
func (n Needs) ChannelCount() int { return int(n & NeedsChannelCountMask) }

func (n Needs) Muted() bool      { return n&NeedsMuteMask == NeedsMuteEnabled }
func (n Needs) Resampling() bool { return n&NeedsResampleMask == NeedsResampleEnabled }
func (n Needs) AuxEnabled() bool { return n&NeedsAuxMask == NeedsAuxEnabled }
