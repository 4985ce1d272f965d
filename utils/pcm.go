// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Clamp16 saturates sample to the signed 16-bit range.
func Clamp16(sample int32) int32 {
	if (sample>>15)^(sample>>31) != 0 {
		sample = 0x7FFF ^ (sample >> 31)
	}

	return sample
}

// AddSat32 adds a and b, saturating at the int32 range.
func AddSat32(a, b int32) int32 {
	return int32(max(min(int64(a)+int64(b), math.MaxInt32), math.MinInt32))
}

// Float32ToInt16 converts a normalized [-1,1] sample to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	return int16(x * 32767.0)
}

// Int16ToFloat64 converts 16-bit PCM to the [-1,1) range.
func Int16ToFloat64(s int16) float64 {
	return float64(s) / 32768.0
}
