// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF files with github.com/go-audio/aiff.
//
// Samples are stored big-endian on disk and handed out as interleaved
// native int16 values. Compressed AIFF-C and other bit depths are rejected:
//
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrOnlyPCM16bitSupported) {
//	    // convert the file first
//	}
package aiff
