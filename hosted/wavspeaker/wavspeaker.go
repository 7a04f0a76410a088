// Package wavspeaker renders PC speaker tones as square waves and stores them
// in a WAV file so beeps can be inspected on hosts without a speaker port.
package wavspeaker

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultSampleRate is the sample rate used by New when given 0.
	DefaultSampleRate = 44100

	bitDepth  = 16
	amplitude = 8192

	// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
	wavFormatPCM = 1
)

// Speaker accumulates tones in memory. Flush writes everything played so far
// to the configured file.
type Speaker struct {
	path       string
	sampleRate int
	samples    []int
}

// New creates a speaker that writes to path.
func New(path string, sampleRate int) *Speaker {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Speaker{path: path, sampleRate: sampleRate}
}

// Tone appends a square wave of freqHz lasting durationMs. A zero frequency
// appends silence.
func (s *Speaker) Tone(freqHz, durationMs uint32) {
	n := s.sampleRate * int(durationMs) / 1000
	for i := 0; i < n; i++ {
		s.samples = append(s.samples, s.sampleAt(i, freqHz))
	}
}

// sampleAt returns sample i of a square wave at freqHz.
func (s *Speaker) sampleAt(i int, freqHz uint32) int {
	if freqHz == 0 {
		return 0
	}

	// Each period has two half periods; even ones are high.
	if (i*2*int(freqHz)/s.sampleRate)%2 == 0 {
		return amplitude
	}
	return -amplitude
}

// Samples returns the number of samples recorded so far.
func (s *Speaker) Samples() int {
	return len(s.samples)
}

// Encode writes the recorded samples to w as a mono 16-bit PCM WAV stream.
func (s *Speaker) Encode(w io.WriteSeeker) error {
	enc := wav.NewEncoder(w, s.sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: s.sampleRate},
		Data:           s.samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavspeaker: encoding samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavspeaker: finalizing wav: %w", err)
	}
	return nil
}

// Flush writes all recorded tones to the speaker's file, replacing any
// previous contents.
func (s *Speaker) Flush() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("wavspeaker: %w", err)
	}

	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
