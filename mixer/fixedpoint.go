// SPDX-License-Identifier: EPL-2.0

package mixer

import "github.com/ik5/audmix/utils"

func clamp16(s int32) int32 { return utils.Clamp16(s) }

// addSat keeps a full accumulator pinned at its rail instead of wrapping.
func addSat(a, b int32) int32 { return utils.AddSat32(a, b) }

func mulAdd(a, b int16, c int32) int32 {
	return addSat(c, int32(a)*int32(b))
}

// packRL packs a stereo sample pair the way volumeRL packs the volumes:
// left in the low half, right in the high half.
func packRL(l, r int16) uint32 {
	return uint32(uint16(l)) | uint32(uint16(r))<<16
}

func mulRL(left bool, rl, vrl uint32) int32 {
	if left {
		return int32(int16(rl)) * int32(int16(vrl))
	}

	return int32(int16(rl>>16)) * int32(int16(vrl>>16))
}

func mulAddRL(left bool, rl, vrl uint32, a int32) int32 {
	return addSat(a, mulRL(left, rl, vrl))
}

// ditherAndClamp scales Q4.12 sums back to 16-bit stereo samples.
func ditherAndClamp(out []int16, sums []int32, frames int) {
	for i := range frames {
		out[2*i] = int16(clamp16(sums[2*i] >> 12))
		out[2*i+1] = int16(clamp16(sums[2*i+1] >> 12))
	}
}
