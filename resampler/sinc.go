// SPDX-License-Identifier: EPL-2.0

package resampler

import (
	"math"
	"sync"

	"github.com/ik5/audmix/utils"
)

const (
	sincHalfTaps   = 8
	sincPhaseBits  = 6
	sincPhases     = 1 << sincPhaseBits
	sincCoefBits   = 30
	sincKaiserBeta = 7.0

	sincUpCutoff = 0.92
	// folds 48 kHz down to 44.1 kHz without aliasing
	sincDownCutoff = sincUpCutoff * 44100.0 / 48000.0
)

var (
	sincOnce      sync.Once
	sincUpTable   []int32
	sincDownTable []int32
)

// bessel0 is the zeroth order modified Bessel function of the first kind.
func bessel0(x float64) float64 {
	sum, term := 1.0, 1.0
	half := x / 2
	for k := 1; k < 64; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-12 {
			break
		}
	}

	return sum
}

// buildSincTable samples a Kaiser-windowed sinc at sincPhases points per
// input sample over sincHalfTaps samples. Two guard entries let the
// phase interpolation read one past the end.
func buildSincTable(cutoff float64) []int32 {
	n := sincHalfTaps * sincPhases
	table := make([]int32, n+2)
	norm := bessel0(sincKaiserBeta)

	for i := 0; i <= n; i++ {
		x := float64(i) / sincPhases
		s := 1.0
		if i != 0 {
			s = math.Sin(math.Pi*cutoff*x) / (math.Pi * cutoff * x)
		}
		r := x / sincHalfTaps
		w := bessel0(sincKaiserBeta*math.Sqrt(math.Max(0, 1-r*r))) / norm
		table[i] = int32(math.Round(cutoff * s * w * (1 << sincCoefBits)))
	}

	return table
}

func sincTables() (up, down []int32) {
	sincOnce.Do(func() {
		sincUpTable = buildSincTable(sincUpCutoff)
		sincDownTable = buildSincTable(sincDownCutoff)
	})

	return sincUpTable, sincDownTable
}

// sinc is the windowed-sinc tier. The output point sits between history
// frames sincHalfTaps-1 and sincHalfTaps.
type sinc struct {
	base
	table []int32
}

func newSinc(channels int, outRate uint32) *sinc {
	r := &sinc{}
	r.init(channels, outRate, 2*sincHalfTaps, HighQuality)
	r.emit = r.emitFrame
	r.table, _ = sincTables()

	return r
}

func (r *sinc) SetSampleRate(inRate uint32) {
	r.base.SetSampleRate(inRate)

	up, down := sincTables()
	if r.inRate > r.outRate {
		r.table = down
		return
	}
	r.table = up
}

// coef reads the filter at tap distance j plus a Q30 fraction, lerping
// between neighbouring phases.
func (r *sinc) coef(j int, frac uint64) int64 {
	pos := frac << sincPhaseBits
	idx := j*sincPhases + int(pos>>numPhaseBits)
	sub := int64(pos & phaseMask)
	c0 := int64(r.table[idx])
	c1 := int64(r.table[idx+1])

	return c0 + (((c1 - c0) * sub) >> numPhaseBits)
}

func (r *sinc) filter(c int, frac uint64) int32 {
	n := r.channels
	h := r.hist
	var acc int64

	for j := range sincHalfTaps {
		left := h[(sincHalfTaps-1-j)*n+c]
		right := h[(sincHalfTaps+j)*n+c]
		acc += int64(left) * r.coef(j, frac)
		acc += int64(right) * r.coef(j, phaseOne-frac)
	}

	return utils.Clamp16(int32(acc >> sincCoefBits))
}

func (r *sinc) emitFrame(out []int32, frac uint64) {
	frac &= phaseMask

	if r.channels == 1 {
		s := r.filter(0, frac)
		r.mix(out, s, s)
		return
	}

	r.mix(out, r.filter(0, frac), r.filter(1, frac))
}
