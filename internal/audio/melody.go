// Package audio plays the background music and hit sounds through the
// beep speaker. Failures to open the audio device are reported to the caller,
// which keeps the game running silently.
package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

// Note is one step of a melody. A zero frequency is a rest.
type Note struct {
	Freq  float64
	Beats float64
}

// Pitches used by the built-in melody, fourth octave.
const (
	C4 = 261.63
	D4 = 293.66
	E4 = 329.63
	F4 = 349.23
	G4 = 392.00
)

// JingleBells returns the chorus of "Jingle Bells", both endings.
func JingleBells() []Note {
	theme := []Note{
		{E4, 1}, {E4, 1}, {E4, 2},
		{E4, 1}, {E4, 1}, {E4, 2},
		{E4, 1}, {G4, 1}, {C4, 1.5}, {D4, 0.5},
		{E4, 4},
		{F4, 1}, {F4, 1}, {F4, 1.5}, {F4, 0.5},
		{F4, 1}, {E4, 1}, {E4, 1}, {E4, 0.5}, {E4, 0.5},
	}

	notes := append([]Note{}, theme...)
	notes = append(notes,
		Note{E4, 1}, Note{D4, 1}, Note{D4, 1}, Note{E4, 1},
		Note{D4, 2}, Note{G4, 2},
	)
	notes = append(notes, theme...)
	notes = append(notes,
		Note{G4, 1}, Note{G4, 1}, Note{F4, 1}, Note{D4, 1},
		Note{C4, 3}, Note{0, 1},
	)
	return notes
}

// Render synthesizes notes into a buffer at the given tempo. Each note is
// cut slightly short so repeated pitches stay distinct.
func Render(notes []Note, bpm float64, rate beep.SampleRate) (*beep.Buffer, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("audio: tempo must be positive, got %g", bpm)
	}
	beat := time.Duration(float64(time.Minute) / bpm)

	parts := make([]beep.Streamer, 0, len(notes)*2)
	for _, n := range notes {
		total := rate.N(time.Duration(n.Beats * float64(beat)))
		if n.Freq <= 0 {
			parts = append(parts, beep.Silence(total))
			continue
		}
		tone, err := generators.SineTone(rate, n.Freq)
		if err != nil {
			return nil, fmt.Errorf("audio: note %g Hz: %w", n.Freq, err)
		}
		sounding := total * 9 / 10
		parts = append(parts, beep.Take(sounding, tone), beep.Silence(total-sounding))
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(&effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: -2})
	return buf, nil
}

// LoadWAV decodes a WAV file into a buffer at the given sample rate.
func LoadWAV(path string, rate beep.SampleRate) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to open %s: %w", path, err)
	}
	defer f.Close()

	s, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to decode %s: %w", path, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != rate {
		src = beep.Resample(4, format.SampleRate, rate, s)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("audio: failed to read %s: %w", path, err)
	}
	return buf, nil
}
