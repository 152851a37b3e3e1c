// Package wav serializes PCM sample sequences into WAV containers.
package wav

import (
	"bytes"
	"math"
)

const (
	headerSize    = 44
	bytesPerSamp  = 2 // 16-bit PCM
	numChannels   = 1 // mono
	bitsPerSample = 16
)

// Encode converts float32 samples in [-1, 1] to a mono 16-bit PCM WAV
// container at the given sample rate. Samples outside [-1, 1] are clamped.
// Quantization is asymmetric: negative samples scale by 32768, non-negative
// by 32767, so the most-negative extreme still fits signed 16-bit range.
func Encode(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * bytesPerSamp

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)                              // chunk size
	writeUint16LE(buf, 1)                               // audio format (PCM)
	writeUint16LE(buf, numChannels)                     // channels
	writeUint32LE(buf, uint32(sampleRate))              // sample rate
	writeUint32LE(buf, uint32(sampleRate*bytesPerSamp)) // byte rate
	writeUint16LE(buf, numChannels*bytesPerSamp)        // block align
	writeUint16LE(buf, bitsPerSample)

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))

	for _, s := range samples {
		writeInt16LE(buf, quantize(s))
	}

	return buf.Bytes()
}

// quantize clamps s to [-1, 1] and converts it to a signed 16-bit sample.
// The scaled value is rounded to nearest, not truncated: 0.5 must map to
// 16384, not 16383.
func quantize(s float32) int16 {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	if s < 0 {
		return int16(math.Round(float64(s) * 32768))
	}
	return int16(math.Round(float64(s) * 32767))
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}

func writeInt16LE(w *bytes.Buffer, v int16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}
