package tiles

// Audio is the background music collaborator. Play restarts the music from
// the beginning and may fail (no output device, autoplay restrictions); the
// engine logs the failure and carries on. Implementations must not call back
// into the engine.
type Audio interface {
	Play() error
	Pause()
}

// NopAudio is a silent Audio.
type NopAudio struct{}

// Play does nothing.
func (NopAudio) Play() error { return nil }

// Pause does nothing.
func (NopAudio) Pause() {}
