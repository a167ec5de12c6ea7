// Package chime synthesizes the board's notification sound: a two-tone
// "ding-dong" rendered as 16-bit mono PCM WAV. Operator consoles fetch the
// clip once and play it when the board pushes a chime cue.
package chime

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

const sampleRate = 44100

// burst is one harmonized pair of tones with a shared envelope.
type burst struct {
	freqs []float64
	start time.Duration
}

// The "ding" is an E5/B5 pair at t=0, the "dong" a C5/G5 pair 200ms later.
// Each tone ramps up fast and decays exponentially to near-silence, which
// reads as a bell rather than a beep. The exact pitches are a product choice.
var dingDong = []burst{
	{freqs: []float64{659.25, 987.77}, start: 0},
	{freqs: []float64{523.25, 783.99}, start: 200 * time.Millisecond},
}

const (
	attack    = 10 * time.Millisecond
	decayTau  = 150 * time.Millisecond
	burstSpan = 700 * time.Millisecond
	clipSpan  = 950 * time.Millisecond
	gain      = 0.35
)

// Generator renders and caches the chime clip.
type Generator struct {
	once sync.Once
	wav  []byte
}

func NewGenerator() *Generator {
	return &Generator{}
}

// WAV returns the chime as a complete WAV file. The clip is synthesized once
// and reused.
func (g *Generator) WAV() []byte {
	g.once.Do(func() {
		g.wav = encodeWAV(synthesize())
	})
	return g.wav
}

// Samples returns the raw PCM samples, mainly for tests.
func (g *Generator) Samples() []int16 {
	return decodePCM(g.WAV())
}

func synthesize() []int16 {
	total := int(float64(sampleRate) * clipSpan.Seconds())
	samples := make([]float64, total)

	for _, b := range dingDong {
		offset := int(float64(sampleRate) * b.start.Seconds())
		span := int(float64(sampleRate) * burstSpan.Seconds())
		for i := 0; i < span && offset+i < total; i++ {
			t := float64(i) / sampleRate
			env := envelope(t)
			var v float64
			for _, f := range b.freqs {
				v += math.Sin(2 * math.Pi * f * t)
			}
			samples[offset+i] += gain * env * v / float64(len(b.freqs))
		}
	}

	out := make([]int16, total)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * math.MaxInt16)
	}
	return out
}

// envelope ramps volume up over the attack window, then decays exponentially.
func envelope(t float64) float64 {
	a := attack.Seconds()
	if t < a {
		return t / a
	}
	return math.Exp(-(t - a) / decayTau.Seconds())
}

func encodeWAV(samples []int16) []byte {
	var buf bytes.Buffer

	dataLen := uint32(len(samples) * 2)

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	// fmt chunk: PCM, mono, 16-bit
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	// data chunk
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

func decodePCM(wav []byte) []int16 {
	const headerLen = 44
	if len(wav) <= headerLen {
		return nil
	}
	data := wav[headerLen:]
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
