// SPDX-License-Identifier: EPL-2.0

// Command mixdown mixes audio files into one stereo 16-bit WAV file.
//
//	mixdown --rate 44100 --volume 1 --volume 0x0800 out.wav voice.wav music.mp3
package main

import (
	"os"

	"github.com/alexflint/go-arg"

	"github.com/ik5/audmix/internal/logging"
)

type args struct {
	Rate    uint32   `arg:"-r,--rate" default:"48000" help:"output sample rate in Hz"`
	Block   int      `arg:"-b,--block" default:"1024" help:"frames mixed per block"`
	Quality string   `arg:"-q,--quality" default:"med" help:"resampler quality for 44.1/48 kHz conversions: low, med or high"`
	Volume  []string `arg:"-v,--volume,separate" help:"input gain as a float (0.5) or Q4.12 hex (0x0800), once for all inputs or once per input"`
	Aux     []string `arg:"-a,--aux,separate" help:"aux send level, same form as --volume"`
	AuxOut  string   `arg:"--aux-out" help:"write the aux bus to this mono WAV file"`
	Output  string   `arg:"positional,required" help:"output WAV file"`
	Inputs  []string `arg:"positional,required" help:"input files (wav, mp3, ogg, aiff)"`
}

func (args) Description() string {
	return "mixdown mixes audio files into one stereo 16-bit WAV file"
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if a.Block <= 0 {
		p.Fail("--block must be positive")
	}
	if a.Rate == 0 {
		p.Fail("--rate must be positive")
	}

	log := logging.NewLogger("mixdown")
	if err := run(a, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
