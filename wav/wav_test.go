package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	gowav "github.com/go-audio/wav"
)

func TestEncodeHeader(t *testing.T) {
	data := Encode([]float32{0.0, 1.0, -1.0, 0.5}, 16000)

	if len(data) != 44+8 {
		t.Fatalf("container length = %d, want 52", len(data))
	}

	fields := []struct {
		name   string
		offset int
		size   int
		want   uint32
	}{
		{"chunk size", 4, 4, 36 + 8},
		{"subchunk1 size", 16, 4, 16},
		{"audio format", 20, 2, 1},
		{"channels", 22, 2, 1},
		{"sample rate", 24, 4, 16000},
		{"byte rate", 28, 4, 32000},
		{"block align", 32, 2, 2},
		{"bits per sample", 34, 2, 16},
		{"data size", 40, 4, 8},
	}

	for _, f := range fields {
		var got uint32
		if f.size == 2 {
			got = uint32(binary.LittleEndian.Uint16(data[f.offset:]))
		} else {
			got = binary.LittleEndian.Uint32(data[f.offset:])
		}
		if got != f.want {
			t.Errorf("%s = %d, want %d", f.name, got, f.want)
		}
	}

	for i, magic := range []struct {
		offset int
		want   string
	}{
		{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"},
	} {
		if got := string(data[magic.offset : magic.offset+4]); got != magic.want {
			t.Errorf("magic %d = %q, want %q", i, got, magic.want)
		}
	}
}

func TestEncodeQuantization(t *testing.T) {
	tests := []struct {
		name   string
		sample float32
		want   int16
	}{
		{"zero", 0.0, 0},
		{"full_positive", 1.0, 32767},
		{"full_negative", -1.0, -32768},
		{"half", 0.5, 16384},
		{"quarter_rounds_up", 0.25, 8192},
		{"clamped_high", 2.0, 32767},
		{"clamped_low", -3.0, -32768},
		{"half_negative", -0.5, -16384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := Encode([]float32{tt.sample}, 16000)
			got := int16(binary.LittleEndian.Uint16(data[44:]))
			if got != tt.want {
				t.Errorf("quantize(%v) = %d, want %d", tt.sample, got, tt.want)
			}
		})
	}
}

// TestEncodeRoundTrip decodes the container with an independent WAV reader.
func TestEncodeRoundTrip(t *testing.T) {
	samples := []float32{0.0, 1.0, -1.0, 0.5}
	data := Encode(samples, 16000)

	dec := gowav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		t.Fatal("independent decoder rejected the container")
	}
	if dec.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("NumChans = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	want := []int{0, 32767, -32768, 16384}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i, w := range want {
		if buf.Data[i] != w {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], w)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	data := Encode(nil, 16000)
	if len(data) != 44 {
		t.Fatalf("empty container length = %d, want 44", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != 0 {
		t.Errorf("data size = %d, want 0", got)
	}
}
