package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	tempo      = 180 // Beats per minute of the built-in melody
	blipFreq   = 880.0
)

// Player loops the background music and plays hit blips. It satisfies the
// tile engine's audio collaborator: Play restarts the music from the
// beginning, Pause stops it.
type Player struct {
	mu          sync.Mutex
	musicPath   string
	music       *beep.Buffer
	ctrl        *beep.Ctrl
	initialized bool
	initErr     error

	// initSpeaker opens the output device. Replaced in tests.
	initSpeaker func(sr beep.SampleRate, bufferSize int) error
	play        func(s ...beep.Streamer)
}

// NewPlayer creates a player. An empty musicPath selects the built-in
// melody; otherwise the WAV file is looped. Nothing touches the audio device
// until the first Play.
func NewPlayer(musicPath string) *Player {
	return &Player{
		musicPath:   musicPath,
		initSpeaker: speaker.Init,
		play:        speaker.Play,
	}
}

// init prepares the device and the music buffer once. A failure is sticky.
func (p *Player) init() error {
	if p.initialized {
		return p.initErr
	}
	p.initialized = true

	var err error
	if p.musicPath != "" {
		p.music, err = LoadWAV(p.musicPath, sampleRate)
	} else {
		p.music, err = Render(JingleBells(), tempo, sampleRate)
	}
	if err != nil {
		p.initErr = err
		return err
	}

	if err := p.initSpeaker(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		p.initErr = fmt.Errorf("audio: speaker unavailable: %w", err)
		return p.initErr
	}
	return nil
}

// Play starts the music from the beginning, replacing any current playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.init(); err != nil {
		return err
	}
	if p.music.Len() == 0 {
		return fmt.Errorf("audio: music is empty")
	}

	p.stopCurrent()
	p.ctrl = &beep.Ctrl{Streamer: beep.Loop(-1, p.music.Streamer(0, p.music.Len()))}
	p.play(p.ctrl)
	return nil
}

// Pause stops the music. Safe to call when nothing is playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopCurrent()
}

// Blip plays a short tone over the music. No-op until Play has succeeded.
func (p *Player) Blip() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.initErr != nil {
		return
	}
	tone, err := generators.SineTone(sampleRate, blipFreq)
	if err != nil {
		return
	}
	p.play(&effects.Volume{
		Streamer: beep.Take(sampleRate.N(50*time.Millisecond), tone),
		Base:     2,
		Volume:   -3,
	})
}

// Playing reports whether the music is currently sounding.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrl != nil
}

// Close stops playback. The device stays open for the life of the process.
func (p *Player) Close() {
	p.Pause()
}

// stopCurrent detaches the current music stream; the speaker drops it on
// its next read.
func (p *Player) stopCurrent() {
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	speaker.Unlock()
	p.ctrl = nil
}
