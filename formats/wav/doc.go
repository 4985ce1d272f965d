// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes 16-bit PCM WAV files.
//
// Both directions are built on github.com/go-audio/wav. Any channel count
// and sample rate is accepted; other bit depths and compressed formats are
// rejected with ErrOnlyPCM16bitSupported.
//
// # Decoding
//
//	file, _ := os.Open("voice.wav")
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	provider := audio.NewSourceProvider(src, 1024)
//
// The returned audio.Source yields interleaved int16 samples. go-audio
// needs to seek while parsing chunks, so a reader without Seek is read into
// memory first.
//
// # Encoding
//
// Encoder streams interleaved frames and patches the RIFF sizes on Close:
//
//	out, _ := os.Create("mix.wav")
//	enc, _ := wav.NewEncoder(out, 48000, 2)
//	for block := range blocks {
//	    enc.Write(block)
//	}
//	enc.Close()
//
// WriteWAV16 does the same for a single in-memory slice.
package wav
