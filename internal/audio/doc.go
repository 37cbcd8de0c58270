// Package audio keeps an audio output device awake.
// It owns the output stream lifecycle and the synthetic sources played on it:
// an endless silent signal, or periodic low-amplitude tone bursts, both built
// on the beep library.
package audio
