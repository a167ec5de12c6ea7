package chime

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

func TestWAVHeader(t *testing.T) {
	wav := NewGenerator().WAV()

	if len(wav) <= 44 {
		t.Fatalf("clip too short: %d bytes", len(wav))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE magic")
	}
	if !bytes.Equal(wav[36:40], []byte("data")) {
		t.Error("missing data chunk")
	}

	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != sampleRate {
		t.Errorf("sample rate = %d, want %d", rate, sampleRate)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}

	dataLen := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataLen) != len(wav)-44 {
		t.Errorf("data length %d does not match payload %d", dataLen, len(wav)-44)
	}
}

func TestClipDuration(t *testing.T) {
	samples := NewGenerator().Samples()

	want := int(float64(sampleRate) * clipSpan.Seconds())
	if len(samples) != want {
		t.Errorf("got %d samples, want %d", len(samples), want)
	}
}

func TestTwoDistinctBursts(t *testing.T) {
	samples := NewGenerator().Samples()

	peak := func(from, span time.Duration) int16 {
		start := int(float64(sampleRate) * from.Seconds())
		end := start + int(float64(sampleRate)*span.Seconds())
		var max int16
		for _, s := range samples[start:end] {
			if s < 0 {
				s = -s
			}
			if s > max {
				max = s
			}
		}
		return max
	}

	// both bursts audible shortly after their onsets
	ding := peak(20*time.Millisecond, 50*time.Millisecond)
	dong := peak(220*time.Millisecond, 50*time.Millisecond)
	if ding < 1000 {
		t.Errorf("first burst peak %d, want audible signal", ding)
	}
	if dong < 1000 {
		t.Errorf("second burst peak %d, want audible signal", dong)
	}

	// the tail has decayed to near-silence
	tail := peak(clipSpan-30*time.Millisecond, 20*time.Millisecond)
	if tail > ding/4 {
		t.Errorf("tail peak %d has not decayed (first burst peak %d)", tail, ding)
	}
}

func TestWAVIsCached(t *testing.T) {
	g := NewGenerator()

	first := g.WAV()
	second := g.WAV()
	if &first[0] != &second[0] {
		t.Error("WAV resynthesized instead of reusing the cached clip")
	}
}
