package overtone

// AudioSource produces interleaved stereo float32 samples in [-1, 1]. Fills
// buf completely (up to an even length) and returns the number of samples
// written; it never signals end of stream, as an instrument plays until
// stopped.
type AudioSource interface {
	ReadAudio(buf []float32) (int, error)
}

// AudioContext is a connection to the audio environment of the operating
// system.
type AudioContext interface {
	// Play starts pulling samples from the source and playing them on the
	// output device, until the returned player is closed.
	Play(src AudioSource) AudioPlayer
	Close() error
}

// AudioPlayer is ongoing playback of one AudioSource.
type AudioPlayer interface {
	Close() error
}
